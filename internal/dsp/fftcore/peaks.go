package fftcore

import (
	"math/cmplx"
	"sort"

	"spectral/internal/dsp/oscillator"
)

// MinGainThreshold is the floor below which a threshold value is
// meaningless (the epsilon floor referenced in SPEC_FULL.md's peak
// extraction contract and FxParameters.fft_threshold range).
const MinGainThreshold = 1e-6

// ExtractPeaks scans the lower half of a transformed snapshot (bins
// [0, N/2), discarding the mirrored upper half and all phase) and
// returns every bin meeting threshold, sorted by descending magnitude.
// threshold is clamped into [MinGainThreshold, N/2] before use.
func ExtractPeaks(spectrum []complex128, threshold float32) []oscillator.Peak {
	half := len(spectrum) / 2
	upper := float32(half)
	if threshold < MinGainThreshold {
		threshold = MinGainThreshold
	}
	if threshold > upper {
		threshold = upper
	}

	peaks := make([]oscillator.Peak, 0, half)
	for k := 0; k < half; k++ {
		mag := float32(cmplx.Abs(spectrum[k]))
		if mag >= threshold {
			peaks = append(peaks, oscillator.Peak{Bin: k, Magnitude: mag})
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Magnitude > peaks[j].Magnitude })
	return peaks
}
