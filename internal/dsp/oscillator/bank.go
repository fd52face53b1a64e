package oscillator

import (
	"fmt"

	"spectral/internal/dsp/wavetable"
)

// Waveform selects which immutable table every oscillator in a Bank
// reads from.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Saw
	Square
)

// Peak is one entry of the analysis path's bin/magnitude map, the unit
// a Bank retunes from.
type Peak struct {
	Bin       int
	Magnitude Sample
}

// Bank is the fixed-size array of voices the audio path sums and the
// retune worker re-tunes. fftSize determines both the amplitude
// correction 2/fftSize and the bin-to-frequency resolution used to
// convert a Peak into a target frequency.
type Bank struct {
	oscillators []*Oscillator

	sine, triangle, saw, square *wavetable.Table

	sampleRate     float64
	freqResolution float64
	ampCorrection  Sample

	waveform      Waveform
	frequencyOffset Sample
}

// NewBank builds a Bank of voices voices, each a Sample-sized wavetable
// oscillator reading wavetableSize-entry tables, tuned against an FFT
// of fftSize.
func NewBank(voices, wavetableSize, fftSize int, sampleRate float64) (*Bank, error) {
	if voices <= 0 {
		return nil, fmt.Errorf("oscillator: voices must be positive, got %d", voices)
	}
	sine, err := wavetable.NewSine(wavetableSize)
	if err != nil {
		return nil, err
	}
	triangle, err := wavetable.NewTriangle(wavetableSize)
	if err != nil {
		return nil, err
	}
	saw, err := wavetable.NewSaw(wavetableSize)
	if err != nil {
		return nil, err
	}
	square, err := wavetable.NewSquare(wavetableSize)
	if err != nil {
		return nil, err
	}

	b := &Bank{
		oscillators:    make([]*Oscillator, voices),
		sine:           sine,
		triangle:       triangle,
		saw:            saw,
		square:         square,
		ampCorrection:  Sample(2) / Sample(fftSize),
	}
	for i := range b.oscillators {
		b.oscillators[i] = New(sampleRate, sine)
	}
	b.Reset(sampleRate, fftSize)
	return b, nil
}

// Reset restores sampling frequency, bin resolution, and every
// oscillator's silence state.
func (b *Bank) Reset(sampleRate float64, fftSize int) {
	b.sampleRate = sampleRate
	b.freqResolution = sampleRate / float64(fftSize)
	b.ampCorrection = Sample(2) / Sample(fftSize)
	for _, o := range b.oscillators {
		o.Reset(sampleRate)
	}
}

// Voices reports the bank's voice capacity, V_max.
func (b *Bank) Voices() int { return len(b.oscillators) }

// SetGlideSteps propagates a new glide-step count to every voice.
func (b *Bank) SetGlideSteps(steps uint16) {
	for _, o := range b.oscillators {
		o.SetGlideSteps(steps)
	}
}

// SetFrequencyOffset sets the per-bank offset added to every re-tuned
// frequency before the Nyquist clamp.
func (b *Bank) SetFrequencyOffset(offset Sample) {
	b.frequencyOffset = offset
}

// SelectWaveform atomically swaps every oscillator's table pointer.
func (b *Bank) SelectWaveform(w Waveform) {
	b.waveform = w
	var tbl *wavetable.Table
	switch w {
	case Triangle:
		tbl = b.triangle
	case Saw:
		tbl = b.saw
	case Square:
		tbl = b.square
	default:
		tbl = b.sine
	}
	for _, o := range b.oscillators {
		o.ChangeWaveform(tbl)
	}
}

// ReceiveOutput sums every voice's Step output and applies the
// 2/N amplitude correction. Audio thread only: must never allocate,
// block, or call a transcendental.
func (b *Bank) ReceiveOutput() Sample {
	var sum Sample
	for _, o := range b.oscillators {
		sum += o.Step()
	}
	return b.ampCorrection * sum
}

// OscillatorAmplitude reports voice i's current amplitude, for harness
// telemetry and tests that observe per-voice state.
func (b *Bank) OscillatorAmplitude(i int) Sample { return b.oscillators[i].Amplitude() }

// OscillatorIncrement reports voice i's current phase increment.
func (b *Bank) OscillatorIncrement(i int) Sample { return b.oscillators[i].Increment() }

// TuneToPeaks maps the first min(voices, V_max) peaks onto the bank's
// oscillators in order, then explicitly silences the remaining
// V_max-k oscillators so they glide out rather than cut abruptly.
// Analysis (retune worker) thread only.
func (b *Bank) TuneToPeaks(peaks []Peak, voices int) {
	k := voices
	if k > len(b.oscillators) {
		k = len(b.oscillators)
	}
	if k > len(peaks) {
		k = len(peaks)
	}
	for i := 0; i < k; i++ {
		freq := Sample(peaks[i].Bin)*Sample(b.freqResolution) + b.frequencyOffset
		amp := peaks[i].Magnitude * b.ampCorrection
		b.oscillators[i].TuneAndSetAmp(freq, amp)
	}
	for i := k; i < len(b.oscillators); i++ {
		b.oscillators[i].TuneAndSetAmp(0, 0)
	}
}
