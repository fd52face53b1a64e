package engine

import (
	"math"
	"sync/atomic"

	"spectral/internal/dsp/oscillator"
)

// HostParams is the plain, host-constructed value passed to
// UpdateParameters. Every field maps one-to-one to the FxParameters
// table in SPEC_FULL.md §6.
type HostParams struct {
	Waveform         oscillator.Waveform
	FilterCutoff     float64
	FFTThreshold     float32
	FrequencyOffset  float32
	Gain             float32
	Feedback         float32
	GlideSteps       uint16
	Voices           int
	Freeze           bool
	ContinuousTuning bool
	TuneIntervalMs   uint16
}

// params is the live, concurrently-shared parameter block: one atomic
// per field, written by the parameter thread and read by whichever
// worker needs that specific field on its next iteration. No ordering
// stronger than release/acquire on an individual atomic is required,
// per SPEC_FULL.md §5.
type params struct {
	maxVoices int // fixed at construction; bounds voices clamping below

	waveform         atomic.Int32
	filterCutoffBits atomic.Uint64
	fftThresholdBits atomic.Uint32
	freqOffsetBits   atomic.Uint32
	gainBits         atomic.Uint32
	feedbackBits     atomic.Uint32
	glideSteps       atomic.Uint32
	voices           atomic.Int32
	freeze           atomic.Bool
	continuousTuning atomic.Bool
	tuneIntervalMs   atomic.Uint32
}

func newParams(maxVoices int) *params {
	p := &params{maxVoices: maxVoices}
	p.apply(HostParams{
		Waveform:         oscillator.Sine,
		FilterCutoff:     20000,
		FFTThreshold:     0.01,
		Gain:             1,
		GlideSteps:       100,
		Voices:           0,
		ContinuousTuning: true,
		TuneIntervalMs:   100,
	})
	return p
}

func (p *params) apply(h HostParams) {
	p.waveform.Store(int32(h.Waveform))
	p.filterCutoffBits.Store(math.Float64bits(h.FilterCutoff))
	p.fftThresholdBits.Store(math.Float32bits(h.FFTThreshold))
	p.freqOffsetBits.Store(math.Float32bits(h.FrequencyOffset))
	p.gainBits.Store(math.Float32bits(clampFloat32(h.Gain, 0, 2)))
	p.feedbackBits.Store(math.Float32bits(clampFeedback(h.Feedback)))

	glideSteps := h.GlideSteps
	if glideSteps < 1 {
		glideSteps = 1
	}
	p.glideSteps.Store(uint32(glideSteps))

	voices := h.Voices
	if voices < 0 {
		voices = 0
	}
	if voices > p.maxVoices {
		voices = p.maxVoices
	}
	p.voices.Store(int32(voices))
	p.freeze.Store(h.Freeze)
	p.continuousTuning.Store(h.ContinuousTuning)

	interval := h.TuneIntervalMs
	if interval < 1 {
		interval = 1
	}
	if interval > 5000 {
		interval = 5000
	}
	p.tuneIntervalMs.Store(uint32(interval))
}

func (p *params) Waveform() oscillator.Waveform { return oscillator.Waveform(p.waveform.Load()) }
func (p *params) FilterCutoff() float64          { return math.Float64frombits(p.filterCutoffBits.Load()) }
func (p *params) FFTThreshold() float32          { return math.Float32frombits(p.fftThresholdBits.Load()) }
func (p *params) FrequencyOffset() float32       { return math.Float32frombits(p.freqOffsetBits.Load()) }
func (p *params) Gain() float32                  { return math.Float32frombits(p.gainBits.Load()) }
func (p *params) Feedback() float32              { return math.Float32frombits(p.feedbackBits.Load()) }
func (p *params) GlideSteps() uint16             { return uint16(p.glideSteps.Load()) }
func (p *params) Voices() int                    { return int(p.voices.Load()) }
func (p *params) Freeze() bool                   { return p.freeze.Load() }
func (p *params) ContinuousTuning() bool         { return p.continuousTuning.Load() }
func (p *params) TuneIntervalMs() uint16         { return uint16(p.tuneIntervalMs.Load()) }

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFeedback enforces the strict-upper-open [0, 1) range decided in
// SPEC_FULL.md §9, instead of the literal [0, 1] the base spec flags
// as an open question: feedback can never reach unity loop gain.
func clampFeedback(v float32) float32 {
	if v < 0 {
		return 0
	}
	const justBelowOne = 0.999999
	if v > justBelowOne {
		return justBelowOne
	}
	return v
}
