package engine

import (
	"math"
	"testing"
	"time"

	"spectral/internal/dsp/oscillator"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Config{
		FFTSize:       1024,
		WavetableSize: 256,
		MaxVoices:     4,
		SampleRate:    44100,
		Window:        Hann,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func sinusoidChunk(n, bin int, amp float64) []oscillator.Sample {
	out := make([]oscillator.Sample, n)
	for i := 0; i < n; i++ {
		out[i] = oscillator.Sample(amp * math.Sin(2*math.Pi*float64(bin)*float64(i)/float64(n)))
	}
	return out
}

func pollUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func TestSilenceInSilenceOut(t *testing.T) {
	e := newTestEngine(t)
	e.UpdateParameters(HostParams{Gain: 1, Voices: 4, ContinuousTuning: true, GlideSteps: 100, TuneIntervalMs: 100})

	samples := make([]oscillator.Sample, 2048)
	e.ProcessChunk(samples)

	for i := 1024; i < len(samples); i++ {
		if samples[i] > 1e-6 || samples[i] < -1e-6 {
			t.Fatalf("sample %d = %v, want ~0 after one window settle", i, samples[i])
		}
	}
}

func TestSingleSinusoidSpectrumPeak(t *testing.T) {
	e := newTestEngine(t)
	e.UpdateParameters(HostParams{Gain: 1, Voices: 4, ContinuousTuning: true, GlideSteps: 100, FFTThreshold: 0.01, TuneIntervalMs: 100})

	samples := sinusoidChunk(1024, 10, 1)
	e.ProcessChunk(samples)

	ok := pollUntil(t, time.Second, func() bool {
		bm := e.BinMag()
		return len(bm) > 0 && bm[0].Bin == 10
	})
	if !ok {
		bm := e.BinMag()
		t.Fatalf("expected top bin 10, got %+v", bm)
	}
}

func TestTwoToneOrdering(t *testing.T) {
	e := newTestEngine(t)
	e.UpdateParameters(HostParams{Gain: 1, Voices: 4, ContinuousTuning: true, GlideSteps: 100, FFTThreshold: 0.01, TuneIntervalMs: 100})

	n := 1024
	samples := make([]oscillator.Sample, n)
	for i := 0; i < n; i++ {
		samples[i] = oscillator.Sample(0.4*math.Sin(2*math.Pi*6*float64(i)/float64(n)) + 0.8*math.Sin(2*math.Pi*10*float64(i)/float64(n)))
	}
	e.ProcessChunk(samples)

	ok := pollUntil(t, time.Second, func() bool {
		bm := e.BinMag()
		return len(bm) >= 2 && bm[0].Bin == 10 && bm[1].Bin == 6
	})
	if !ok {
		t.Fatalf("expected bin_mag[0].index=10, bin_mag[1].index=6, got %+v", e.BinMag())
	}
	bm := e.BinMag()
	if bm[0].Magnitude <= bm[1].Magnitude {
		t.Errorf("expected descending magnitude, got %v then %v", bm[0].Magnitude, bm[1].Magnitude)
	}
}

func TestVoiceCapLimitsAudibleOscillators(t *testing.T) {
	e := newTestEngine(t)
	e.UpdateParameters(HostParams{Gain: 1, Voices: 2, ContinuousTuning: true, GlideSteps: 20, FFTThreshold: 0.01, TuneIntervalMs: 100})

	n := 1024
	samples := make([]oscillator.Sample, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		for _, bin := range []int{4, 8, 12, 16} {
			samples[i] += oscillator.Sample(math.Sin(2 * math.Pi * float64(bin) * t))
		}
	}
	e.ProcessChunk(samples)

	ok := pollUntil(t, time.Second, func() bool {
		return e.bank.Voices() > 0 && e.bank.ReceiveOutput() != 0
	})
	if !ok {
		t.Fatal("timed out waiting for retune")
	}

	// drive the glide to completion, then count audible voices.
	for i := 0; i < 100; i++ {
		e.bank.ReceiveOutput()
	}
	audible := 0
	for i := 0; i < e.bank.Voices(); i++ {
		if e.bankOscillatorAmplitude(i) != 0 {
			audible++
		}
	}
	if audible != 2 {
		t.Errorf("audible voices = %d, want 2", audible)
	}
}

func TestFreezeHoldsOscillatorState(t *testing.T) {
	e := newTestEngine(t)
	e.UpdateParameters(HostParams{Gain: 1, Voices: 4, ContinuousTuning: true, GlideSteps: 50, FFTThreshold: 0.01, TuneIntervalMs: 100})

	samples := sinusoidChunk(1024, 10, 1)
	e.ProcessChunk(samples)
	pollUntil(t, time.Second, func() bool {
		bm := e.BinMag()
		return len(bm) > 0 && bm[0].Bin == 10
	})
	for i := 0; i < 60; i++ {
		e.bank.ReceiveOutput()
	}
	before := e.bankOscillatorIncrement(0)

	e.UpdateParameters(HostParams{Gain: 1, Voices: 4, ContinuousTuning: true, GlideSteps: 50, FFTThreshold: 0.01, Freeze: true, TuneIntervalMs: 100})

	newSamples := sinusoidChunk(4096, 20, 1)
	e.ProcessChunk(newSamples)
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 60; i++ {
		e.bank.ReceiveOutput()
	}

	after := e.bankOscillatorIncrement(0)
	if before != after {
		t.Errorf("increment changed under freeze: before=%v after=%v", before, after)
	}
}

func TestTriggeredRetuneDelaysParameterUpdates(t *testing.T) {
	e := newTestEngine(t)
	e.UpdateParameters(HostParams{Gain: 1, Voices: 4, ContinuousTuning: false, GlideSteps: 10, FFTThreshold: 0.01, TuneIntervalMs: 50})

	e.ProcessChunk(sinusoidChunk(1024, 10, 1))

	ok := pollUntil(t, time.Second, func() bool {
		bm := e.BinMag()
		return len(bm) > 0 && bm[0].Bin == 10
	})
	if !ok {
		t.Fatal("expected an FFT result even though tuning is triggered, not continuous")
	}

	// immediately after the FFT, the oscillator should still be silent:
	// the trigger has not fired yet.
	if e.bankOscillatorAmplitude(0) != 0 {
		t.Fatalf("voice 0 amplitude = %v before the trigger fired, want 0", e.bankOscillatorAmplitude(0))
	}

	// wait past the 50ms trigger interval and drive the glide forward.
	ok = pollUntil(t, 2*time.Second, func() bool {
		for i := 0; i < 20; i++ {
			e.bank.ReceiveOutput()
		}
		return e.bankOscillatorAmplitude(0) != 0
	})
	if !ok {
		t.Fatal("expected the oscillator to become audible once the trigger fires")
	}
}

func TestChunkSmallerThanWindowTriggersNoFFT(t *testing.T) {
	e := newTestEngine(t)
	samples := make([]oscillator.Sample, 100)
	e.ProcessChunk(samples)
	time.Sleep(20 * time.Millisecond)
	if len(e.BinMag()) != 0 {
		t.Errorf("expected no FFT for a chunk smaller than N/2, got bin_mag of length %d", len(e.BinMag()))
	}
}

func TestUpdateParametersTwiceIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	h := HostParams{Gain: 0.5, Voices: 3, ContinuousTuning: false, GlideSteps: 40, FFTThreshold: 0.02, TuneIntervalMs: 80}
	e.UpdateParameters(h)
	e.UpdateParameters(h)
	if e.params.Gain() != 0.5 || e.params.Voices() != 3 || e.params.GlideSteps() != 40 {
		t.Error("repeated identical UpdateParameters changed observable state")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.ProcessChunk(sinusoidChunk(1024, 10, 1))
	e.Reset()
	e.Reset()
	samples := make([]oscillator.Sample, 8)
	e.ProcessChunk(samples)
	for _, s := range samples {
		if s != 0 {
			t.Errorf("sample after double reset = %v, want 0", s)
		}
	}
}

// bankOscillatorAmplitude/Increment adapt the engine test helpers to
// the oscillator package's exported per-voice accessors.
func (e *Engine) bankOscillatorAmplitude(i int) oscillator.Sample {
	return e.bank.OscillatorAmplitude(i)
}

func (e *Engine) bankOscillatorIncrement(i int) oscillator.Sample {
	return e.bank.OscillatorIncrement(i)
}
