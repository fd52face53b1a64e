// Package twiddle precomputes the complex exponentials consumed by the
// FFT butterfly stages, so no exp/sin/cos call ever appears in the
// transform's hot loop.
package twiddle

import "math"

const numStages = 10

// LUT holds one immutable array per FFT stage, sizes 1, 2, 4, ..., 512.
// Element k of the array for stage s (size M = 1<<s) is e^(-i*pi*k/M).
// select(stage) carries the array-selection state between butterfly
// stages, matching the reference exponent table's choose_array/[]
// split: selection is a cheap, infrequent call once per stage; lookup
// is unchecked and happens once per butterfly.
type LUT struct {
	stages [numStages][]complex128
	active int
}

// New builds the full family of stage arrays.
func New() *LUT {
	lut := &LUT{}
	size := 1
	for s := 0; s < numStages; s++ {
		arr := make([]complex128, size)
		for k := 0; k < size; k++ {
			angle := -math.Pi * float64(k) / float64(size)
			arr[k] = complex(math.Cos(angle), math.Sin(angle))
		}
		lut.stages[s] = arr
		size <<= 1
	}
	return lut
}

// Select sets the active stage, clamped to [0, 9].
func (l *LUT) Select(stage int) {
	if stage < 0 {
		stage = 0
	}
	if stage > numStages-1 {
		stage = numStages - 1
	}
	l.active = stage
}

// Get returns the k-th twiddle of the currently selected stage without
// a bounds check beyond what the slice indexing itself performs; the
// caller (the FFT butterfly) guarantees k is in range by construction.
func (l *LUT) Get(k int) complex128 {
	return l.stages[l.active][k]
}

// Stages reports how many stage arrays exist (always 10).
func (l *LUT) Stages() int { return numStages }
