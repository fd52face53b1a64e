package oscillator

import "testing"

func TestTuneToPeaksSilencesUnusedVoices(t *testing.T) {
	bank, err := NewBank(4, 256, 1024, 44100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bank.SetGlideSteps(10)
	bank.TuneToPeaks([]Peak{{Bin: 10, Magnitude: 5}}, 4)
	for i := 0; i < 10; i++ {
		bank.ReceiveOutput()
	}

	if bank.oscillators[0].Amplitude() == 0 {
		t.Error("voice 0 should be tuned and audible")
	}
	for i := 1; i < bank.Voices(); i++ {
		if bank.oscillators[i].Amplitude() != 0 {
			t.Errorf("voice %d should have been silenced, amplitude = %v", i, bank.oscillators[i].Amplitude())
		}
	}
}

func TestTuneToPeaksRespectsVoiceCap(t *testing.T) {
	bank, err := NewBank(4, 256, 1024, 44100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bank.SetGlideSteps(5)
	peaks := []Peak{{Bin: 4, Magnitude: 9}, {Bin: 8, Magnitude: 7}, {Bin: 12, Magnitude: 5}, {Bin: 16, Magnitude: 3}}
	bank.TuneToPeaks(peaks, 2)
	for i := 0; i < 5; i++ {
		bank.ReceiveOutput()
	}
	for i := 0; i < 2; i++ {
		if bank.oscillators[i].Amplitude() == 0 {
			t.Errorf("voice %d should be audible under a 2-voice cap", i)
		}
	}
	for i := 2; i < bank.Voices(); i++ {
		if bank.oscillators[i].Amplitude() != 0 {
			t.Errorf("voice %d should stay silent under a 2-voice cap", i)
		}
	}
}

func TestZeroVoicesProducesSilence(t *testing.T) {
	bank, err := NewBank(4, 256, 1024, 44100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bank.SetGlideSteps(5)
	bank.TuneToPeaks([]Peak{{Bin: 10, Magnitude: 5}}, 0)
	for i := 0; i < 5; i++ {
		if out := bank.ReceiveOutput(); out != 0 {
			t.Fatalf("step %d: output %v, want 0 with voices=0", i, out)
		}
	}
}

func TestSelectWaveformSwapsEveryOscillator(t *testing.T) {
	bank, err := NewBank(3, 64, 512, 44100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bank.SelectWaveform(Square)
	for i, o := range bank.oscillators {
		if o.table.Load() != bank.square {
			t.Errorf("oscillator %d not switched to square table", i)
		}
	}
}

func TestReceiveOutputNeverAllocates(t *testing.T) {
	bank, err := NewBank(46, 256, 1024, 44100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bank.TuneToPeaks([]Peak{{Bin: 10, Magnitude: 5}}, 46)
	bank.ReceiveOutput()

	allocs := testing.AllocsPerRun(1000, func() {
		bank.ReceiveOutput()
	})
	if allocs != 0 {
		t.Errorf("ReceiveOutput allocated %v times per call, want 0", allocs)
	}
}
