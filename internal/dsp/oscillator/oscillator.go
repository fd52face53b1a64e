// Package oscillator implements the wavetable oscillator that is the
// unit of resynthesis: read two neighboring table samples, interpolate,
// advance phase by subtraction (no modulo), and glide its increment and
// amplitude toward the most recently requested target one step at a
// time so a retune never clicks.
package oscillator

import (
	"sync/atomic"

	"spectral/internal/dsp/wavetable"
)

// Sample is the fixed compile-time scalar type for every per-sample
// audio-path value, chosen once per SPEC_FULL.md's data model.
type Sample = float32

// Oscillator is one voice. Every field below is touched by exactly one
// goroutine in steady state: phase/increment/amplitude are written
// only from Step (the audio path), and the prev/delta/limit fields are
// written only from TuneAndSetAmp (the retune worker) and read by
// Step; the two never write the same field, so no tearing is possible
// without an atomic.
// The one field genuinely shared for concurrent visibility is the
// waveform table pointer, which is an atomic.Pointer.
type Oscillator struct {
	sampleRate    float64
	nyquist       float64
	tableSize     int
	glideStepsInv float32

	table atomic.Pointer[wavetable.Table]

	phase     Sample
	increment Sample
	amplitude Sample

	incPrev Sample
	ampPrev Sample

	deltaInc Sample
	deltaAmp Sample

	incLimitLo, incLimitHi Sample
	ampLimitLo, ampLimitHi Sample
}

// New creates an oscillator bound to table at the given sampling
// frequency, silent until the first TuneAndSetAmp call.
func New(sampleRate float64, table *wavetable.Table) *Oscillator {
	o := &Oscillator{}
	o.Reset(sampleRate)
	o.ChangeWaveform(table)
	o.SetGlideSteps(100)
	return o
}

// Reset restores the oscillator to silence at a (possibly new)
// sampling frequency: zero phase, zero increment, zero amplitude, and
// every glide limit at zero, so the voice stays silent until a
// TuneAndSetAmp call raises an upper limit.
func (o *Oscillator) Reset(sampleRate float64) {
	o.sampleRate = sampleRate
	o.nyquist = sampleRate / 2
	o.phase = 0
	o.increment = 0
	o.amplitude = 0
	o.incPrev = 0
	o.ampPrev = 0
	o.deltaInc = 0
	o.deltaAmp = 0
	o.incLimitLo = 0
	o.incLimitHi = 0
	o.ampLimitLo = 0
	o.ampLimitHi = 0
}

// SetGlideSteps fixes how many Step calls it takes to reach a new
// target after TuneAndSetAmp, clamped to [1, 65535] per FxParameters.
func (o *Oscillator) SetGlideSteps(steps uint16) {
	if steps < 1 {
		steps = 1
	}
	o.glideStepsInv = 1 / float32(steps)
}

// ChangeWaveform atomically swaps the table pointer. Safe to call
// concurrently with Step: Step dereferences the pointer exactly once
// per call, and every waveform table shares the same length.
func (o *Oscillator) ChangeWaveform(table *wavetable.Table) {
	o.tableSize = table.Len()
	o.table.Store(table)
}

// Step advances the oscillator by one sample and returns its output.
// Must never allocate, block, or call a transcendental function.
func (o *Oscillator) Step() Sample {
	table := o.table.Load()
	raw := table.Raw()

	idx := int(o.phase)
	a := raw[idx]
	b := raw[idx+1]
	frac := o.phase - Sample(idx)
	out := a + frac*(b-a)

	internalSize := Sample(o.tableSize - 1)
	o.phase += o.increment
	if o.phase >= internalSize {
		o.phase -= internalSize
	}

	o.increment = clamp(o.increment+o.deltaInc, o.incLimitLo, o.incLimitHi)
	o.amplitude = clamp(o.amplitude+o.deltaAmp, o.ampLimitLo, o.ampLimitHi)

	return out * o.amplitude
}

// TuneAndSetAmp sets a new frequency/amplitude target, to be reached
// gradually over the configured glide-step count. Called from the
// retune worker only.
func (o *Oscillator) TuneAndSetAmp(freq, amp Sample) {
	fTarget := clamp(freq, 0, Sample(o.nyquist))
	incTarget := Sample(o.tableSize-1) * fTarget / Sample(o.sampleRate)

	o.deltaInc = (incTarget - o.incPrev) * o.glideStepsInv
	o.deltaAmp = (amp - o.ampPrev) * o.glideStepsInv

	if incTarget > o.incPrev {
		o.incLimitHi = incTarget
	} else {
		o.incLimitLo = incTarget
	}
	if amp > o.ampPrev {
		o.ampLimitHi = amp
	} else {
		o.ampLimitLo = amp
	}

	o.incPrev = incTarget
	o.ampPrev = amp
}

// Increment reports the oscillator's current phase increment, for
// tests that observe glide convergence.
func (o *Oscillator) Increment() Sample { return o.increment }

// Amplitude reports the oscillator's current amplitude.
func (o *Oscillator) Amplitude() Sample { return o.amplitude }

func clamp(v, lo, hi Sample) Sample {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
