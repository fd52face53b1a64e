// Package engine wires the five SPEC_FULL.md components into the
// Pipeline Controller: the single owning struct that hands
// non-owning references to the FFT, retune, and trigger worker
// goroutines, and whose Close joins all three before it lets go of
// them. This package is the only host-facing surface: prepare to
// play, update parameters, process a chunk, reset, close.
package engine

import (
	"context"
	"fmt"
	"sync"

	"spectral/internal/dsp/oscillator"
	"spectral/internal/dsp/ringbuffer"
	"spectral/internal/dsp/twiddle"
	"spectral/internal/dsp/wavetable"
)

// AnalysisWindow selects which windowing table the ring buffer applies
// before handing a snapshot to the FFT worker.
type AnalysisWindow int

const (
	Hann AnalysisWindow = iota
	Hamming
	Bartlett
)

// Config fixes the compile-time-sized parts of the engine: the FFT
// window size N, the wavetable size W, and the oscillator bank
// capacity V_max. N and W must be powers of two; V_max must be
// positive.
type Config struct {
	FFTSize       int
	WavetableSize int
	MaxVoices     int
	SampleRate    float64
	Window        AnalysisWindow
}

// Engine is the Pipeline Controller. It owns the ring buffer, the
// oscillator bank, the twiddle LUT, the live parameter block, both
// SyncPrimitives instances, and the three worker goroutines that run
// against them.
type Engine struct {
	cfg Config

	ring *ringbuffer.Ring
	bank *oscillator.Bank
	lut  *twiddle.LUT

	params *params
	calcSP *syncPrimitives
	tuneSP *syncPrimitives

	bm *bufferManager
	ce *calculationEngine
	tm *triggerManager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine constructs the engine and starts its worker goroutines.
// Construction failure (an invalid size) is the only
// unrecoverable error per SPEC_FULL.md §7: it returns a construction
// error rather than panicking, so the host shell can surface it.
func NewEngine(cfg Config) (*Engine, error) {
	window, err := newWindowTable(cfg.Window, cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	ring, err := ringbuffer.New(cfg.FFTSize, window)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	bank, err := oscillator.NewBank(cfg.MaxVoices, cfg.WavetableSize, cfg.FFTSize, cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		ring:   ring,
		bank:   bank,
		lut:    twiddle.New(),
		params: newParams(cfg.MaxVoices),
		calcSP: newSyncPrimitives(),
		tuneSP: newSyncPrimitives(),
	}
	e.bm = newBufferManager(e.ring, e.bank, e.params, e.calcSP, cfg.SampleRate)
	e.ce = newCalculationEngine(e.ring, e.bank, e.params, e.lut, e.calcSP, e.tuneSP)
	e.tm = newTriggerManager(e.params, e.tuneSP)

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.ce.Start(e.ctx, &e.wg)
	e.tm.Start(e.ctx, &e.wg)

	return e, nil
}

func newWindowTable(kind AnalysisWindow, size int) (*wavetable.WindowTable, error) {
	switch kind {
	case Hamming:
		return wavetable.NewHamming(size)
	case Bartlett:
		return wavetable.NewBartlett(size)
	default:
		return wavetable.NewHann(size)
	}
}

// PrepareToPlay sets the sampling frequency, clears the ring buffer,
// zeros the oscillator bank's phases, and re-arms the FFT handoff
// flag. Must not be called from within ProcessChunk.
func (e *Engine) PrepareToPlay(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("engine: sample rate must be positive, got %v", sampleRate)
	}
	e.cfg.SampleRate = sampleRate
	e.ring.Clear()
	e.bank.Reset(sampleRate, e.cfg.FFTSize)
	e.bm.setSampleRate(sampleRate)
	e.calcSP.SetActionDone(true)
	return nil
}

// UpdateParameters applies every field of the host parameter block.
// Safe to call at any time, including concurrently with ProcessChunk.
func (e *Engine) UpdateParameters(h HostParams) {
	e.params.apply(h)
	e.bank.SetGlideSteps(h.GlideSteps)
	e.bank.SelectWaveform(h.Waveform)
	e.bank.SetFrequencyOffset(h.FrequencyOffset)
}

// ProcessChunk replaces samples in place. Must be called from the
// audio thread only; never allocates.
func (e *Engine) ProcessChunk(samples []oscillator.Sample) {
	e.bm.ProcessChunk(samples)
}

// Reset clears the ring, resets the oscillator bank to zero, and
// resets the LPF state. Must not be called from within ProcessChunk.
func (e *Engine) Reset() {
	e.bm.Reset()
	e.bank.Reset(e.cfg.SampleRate, e.cfg.FFTSize)
}

// BinMag returns a copy of the most recently published peak map, for
// harness telemetry. Never called from the audio path.
func (e *Engine) BinMag() []oscillator.Peak {
	return e.ce.BinMag()
}

// Config reports the engine's compile-time-fixed sizing, for harness
// components that need to know N, W, or V_max.
func (e *Engine) Config() Config { return e.cfg }

// VoiceState is one oscillator's audible state, for harness telemetry
// and the terminal monitor. Never called from the audio path.
type VoiceState struct {
	Amplitude oscillator.Sample
	Increment oscillator.Sample
}

// VoiceStates returns a snapshot of every voice's amplitude and
// increment, in bank order.
func (e *Engine) VoiceStates() []VoiceState {
	n := e.bank.Voices()
	out := make([]VoiceState, n)
	for i := 0; i < n; i++ {
		out[i] = VoiceState{
			Amplitude: e.bank.OscillatorAmplitude(i),
			Increment: e.bank.OscillatorIncrement(i),
		}
	}
	return out
}

// Close stops and joins the FFT, retune, and trigger goroutines. Must
// not be called from within ProcessChunk.
func (e *Engine) Close() {
	e.cancel()
	e.calcSP.BroadcastShutdown()
	e.tuneSP.BroadcastShutdown()
	e.wg.Wait()
}
