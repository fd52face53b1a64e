package engine

import (
	"math"

	"spectral/internal/dsp/oscillator"
	"spectral/internal/dsp/ringbuffer"
)

// bufferManager is the audio path: SPEC_FULL.md §4.5's process_chunk,
// invoked once per host callback. ProcessChunk runs on the
// audio/realtime thread and never allocates. Its backpressure check
// reads an atomic flag, but a handoff calls calcSP.Signal, which locks
// that instance's mutex around one flag write and so can wait briefly
// while the FFT worker holds it.
type bufferManager struct {
	ring   *ringbuffer.Ring
	bank   *oscillator.Bank
	params *params
	calcSP *syncPrimitives

	sampleRate  float64
	prevOut     oscillator.Sample
	alpha       oscillator.Sample
	cachedCutoff float64
	wantFFT     bool
}

func newBufferManager(ring *ringbuffer.Ring, bank *oscillator.Bank, p *params, calcSP *syncPrimitives, sampleRate float64) *bufferManager {
	bm := &bufferManager{ring: ring, bank: bank, params: p, calcSP: calcSP}
	bm.setSampleRate(sampleRate)
	return bm
}

func (bm *bufferManager) setSampleRate(sampleRate float64) {
	bm.sampleRate = sampleRate
	bm.cachedCutoff = -1 // force alpha recompute on next updateFilterCoefficient
	bm.updateFilterCoefficient()
}

// updateFilterCoefficient recomputes the one-pole LPF coefficient only
// when the cutoff parameter has actually changed, so the audio path
// never pays for a transcendental call on a steady-state cutoff.
func (bm *bufferManager) updateFilterCoefficient() {
	cutoff := bm.params.FilterCutoff()
	if cutoff == bm.cachedCutoff {
		return
	}
	bm.cachedCutoff = cutoff
	bm.alpha = oscillator.Sample(1 - math.Exp(-2*math.Pi*cutoff/bm.sampleRate))
}

// Reset clears the ring, zeroes the LPF state, and drops any pending
// FFT handoff. It does not touch the oscillator bank; Engine.Reset
// resets the bank separately.
func (bm *bufferManager) Reset() {
	bm.ring.Clear()
	bm.prevOut = 0
	bm.wantFFT = false
}

// ProcessChunk replaces samples[0:len(samples)) in place with the
// resynthesized signal, handing a windowed snapshot to the FFT worker
// whenever a wrap is pending and the previous handoff has been
// consumed. A wrap that arrives while the worker is busy stays pending
// and is handed over at the first sample after the worker finishes;
// further wraps in between collapse into that one pending handoff and
// are never queued. A long chunk can hand over more than one snapshot.
func (bm *bufferManager) ProcessChunk(samples []oscillator.Sample) {
	bm.updateFilterCoefficient()

	feedback := bm.params.Feedback()
	gain := bm.params.Gain()
	alpha := bm.alpha

	for j := range samples {
		bm.ring.FillInput(samples[j] + feedback*bm.prevOut)

		bm.prevOut = (1-alpha)*bm.prevOut + alpha*bm.bank.ReceiveOutput()*gain
		samples[j] = bm.prevOut

		if bm.ring.Advance() {
			bm.wantFFT = true
		}
		if bm.wantFFT && bm.calcSP.ActionDone() {
			bm.calcSP.SetActionDone(false)
			bm.ring.CopyToOutput()
			bm.calcSP.Signal()
			bm.wantFFT = false
		}
	}
}
