package oscillator

import (
	"testing"

	"spectral/internal/dsp/wavetable"
)

func sineOsc(t *testing.T, sampleRate float64) *Oscillator {
	t.Helper()
	tbl, err := wavetable.NewSine(256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(sampleRate, tbl)
}

func TestTuneConvergesWithinGlideSteps(t *testing.T) {
	o := sineOsc(t, 44100)
	o.SetGlideSteps(100)
	o.TuneAndSetAmp(440, 0.5)

	for i := 0; i < 100; i++ {
		o.Step()
	}

	wantInc := Sample(255) * 440 / 44100
	if diff := o.Increment() - wantInc; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("increment = %v, want %v", o.Increment(), wantInc)
	}
	if diff := o.Amplitude() - 0.5; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("amplitude = %v, want 0.5", o.Amplitude())
	}
}

func TestTuneNeverOvershoots(t *testing.T) {
	o := sineOsc(t, 44100)
	o.SetGlideSteps(50)
	o.TuneAndSetAmp(1000, 0.8)

	for i := 0; i < 50; i++ {
		o.Step()
		if o.Amplitude() > 0.8+1e-6 {
			t.Fatalf("step %d: amplitude %v overshot target 0.8", i, o.Amplitude())
		}
	}

	// retune downward; amplitude must not dip below the new target either
	o.TuneAndSetAmp(200, 0.2)
	for i := 0; i < 50; i++ {
		o.Step()
		if o.Amplitude() < 0.2-1e-6 {
			t.Fatalf("step %d: amplitude %v undershot target 0.2", i, o.Amplitude())
		}
	}
}

func TestTuneToSilenceGlidesToZero(t *testing.T) {
	o := sineOsc(t, 44100)
	o.SetGlideSteps(20)
	o.TuneAndSetAmp(300, 0.6)
	for i := 0; i < 20; i++ {
		o.Step()
	}
	o.TuneAndSetAmp(0, 0)
	for i := 0; i < 20; i++ {
		o.Step()
	}
	if o.Amplitude() != 0 {
		t.Errorf("amplitude = %v, want 0", o.Amplitude())
	}
}

func TestStepNeverAllocates(t *testing.T) {
	o := sineOsc(t, 44100)
	o.TuneAndSetAmp(440, 0.5)
	o.Step() // warm up

	allocs := testing.AllocsPerRun(1000, func() {
		o.Step()
	})
	if allocs != 0 {
		t.Errorf("Step allocated %v times per call, want 0", allocs)
	}
}

func BenchmarkStep(b *testing.B) {
	tbl, _ := wavetable.NewSine(256)
	o := New(44100, tbl)
	o.TuneAndSetAmp(440, 0.5)
	for i := 0; i < b.N; i++ {
		o.Step()
	}
}
