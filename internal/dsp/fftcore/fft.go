// Package fftcore implements the radix-2 Cooley-Tukey transform the
// analysis path runs once per filled window: bit-reversal permutation
// followed by log2(N) butterfly stages driven by a precomputed
// twiddle.LUT. This is deliberately hand-rolled rather than delegated
// to a numerics library FFT (see SPEC_FULL.md's DOMAIN STACK note) -
// the stage-selected twiddle LUT is the component under test.
package fftcore

import (
	"fmt"

	"spectral/internal/dsp/twiddle"
	"spectral/pkg/bitint"
)

// Transform performs the forward FFT of samples in place. len(samples)
// must be a power of two; lut must have been built for at least that
// many stages (New always builds all 10, covering sizes up to 1024).
func Transform(samples []complex128, lut *twiddle.LUT) error {
	n := len(samples)
	if !bitint.IsPowerOfTwo(n) {
		return fmt.Errorf("fftcore: size %d is not a power of two", n)
	}
	degree := bitint.Log2(n)
	bitReverse(samples, degree)
	butterflies(samples, lut)
	return nil
}

func bitReverse(samples []complex128, degree int) {
	n := len(samples)
	for j := 0; j < n; j++ {
		r := 0
		for s := 0; s < degree; s++ {
			r = (r << 1) | ((j >> s) & 1)
		}
		if j < r {
			samples[j], samples[r] = samples[r], samples[j]
		}
	}
}

func butterflies(samples []complex128, lut *twiddle.LUT) {
	n := len(samples)
	stage := 0
	for m := 2; m <= n; m <<= 1 {
		lut.Select(stage)
		half := m >> 1
		for base := 0; base < n; base += m {
			for k := 0; k < half; k++ {
				lo := base + k
				hi := lo + half
				tau := lut.Get(k) * samples[hi]
				samples[hi] = samples[lo] - tau
				samples[lo] += tau
			}
		}
		stage++
	}
}
