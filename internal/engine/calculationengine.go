package engine

import (
	"context"
	"sync"

	"spectral/internal/dsp/fftcore"
	"spectral/internal/dsp/oscillator"
	"spectral/internal/dsp/ringbuffer"
	"spectral/internal/dsp/twiddle"
)

// calculationEngine owns the two analysis-side goroutines: the FFT
// worker (transform + peak extraction) and the retune worker (apply
// the latest peak map to the oscillator bank). They communicate
// through binMag under binMagMu, and are woken independently through
// two distinct syncPrimitives instances per SPEC_FULL.md §4.6.
type calculationEngine struct {
	ring   *ringbuffer.Ring
	bank   *oscillator.Bank
	params *params
	lut    *twiddle.LUT

	calcSP *syncPrimitives
	tuneSP *syncPrimitives

	binMagMu sync.Mutex
	binMag   []oscillator.Peak
}

func newCalculationEngine(ring *ringbuffer.Ring, bank *oscillator.Bank, p *params, lut *twiddle.LUT, calcSP, tuneSP *syncPrimitives) *calculationEngine {
	return &calculationEngine{ring: ring, bank: bank, params: p, lut: lut, calcSP: calcSP, tuneSP: tuneSP}
}

// Start launches the FFT and retune worker goroutines, registering
// both with wg so shutdown can join them.
func (ce *calculationEngine) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(2)
	go ce.fftWorker(ctx, wg)
	go ce.retuneWorker(ctx, wg)
}

func shutdownRequested(ctx context.Context) func() bool {
	return func() bool { return ctx.Err() != nil }
}

func (ce *calculationEngine) fftWorker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	stopped := shutdownRequested(ctx)
	for {
		if ce.calcSP.Wait(stopped) {
			return
		}

		spectrum := ce.ring.Output()
		if err := fftcore.Transform(spectrum, ce.lut); err != nil {
			// A non-power-of-two ring size is a construction-time
			// programmer error; it cannot occur once the engine has
			// been built successfully, so there is nothing more to do
			// here than drop this window and wait for the next one.
			ce.calcSP.SetActionDone(true)
			continue
		}

		peaks := fftcore.ExtractPeaks(spectrum, ce.params.FFTThreshold())

		ce.binMagMu.Lock()
		ce.binMag = peaks
		ce.binMagMu.Unlock()

		if ce.params.ContinuousTuning() {
			ce.tuneSP.Signal()
		}
		ce.calcSP.SetActionDone(true)
	}
}

func (ce *calculationEngine) retuneWorker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	stopped := shutdownRequested(ctx)
	for {
		if ce.tuneSP.Wait(stopped) {
			return
		}

		if !ce.params.Freeze() {
			ce.binMagMu.Lock()
			peaks := ce.binMag
			ce.binMagMu.Unlock()
			ce.bank.TuneToPeaks(peaks, ce.params.Voices())
		}
		ce.tuneSP.SetActionDone(true)
	}
}

// BinMag returns a snapshot of the most recently published peak map,
// for harness telemetry. Safe to call from any goroutine.
func (ce *calculationEngine) BinMag() []oscillator.Peak {
	ce.binMagMu.Lock()
	defer ce.binMagMu.Unlock()
	out := make([]oscillator.Peak, len(ce.binMag))
	copy(out, ce.binMag)
	return out
}
