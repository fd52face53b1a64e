// Package wavetable builds the immutable periodic and windowing tables
// consumed by the oscillator bank and the ring buffer. Tables are
// generated once at construction and never mutated afterward; every
// accessor is a plain slice read so the hot path can index them with
// no locking and no allocation.
package wavetable

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/window"

	"spectral/pkg/bitint"
)

// Table is a read-only, power-of-two-sized array of samples.
type Table struct {
	values []float32
}

// Len returns the table size.
func (t *Table) Len() int { return len(t.values) }

// At is the bounds-checked accessor, intended for construction-time
// and test code.
func (t *Table) At(i int) float32 { return t.values[i] }

// Raw exposes the backing slice for the oscillator's hot-path
// interpolation, which indexes it directly rather than through At so
// the compiler has a chance at bounds-check elimination across the
// two consecutive reads it performs per step.
func (t *Table) Raw() []float32 { return t.values }

// equalizeEndAndBegin writes table[S-1] := table[0] so the oscillator's
// linear interpolator, whose phase wraps at S-1, can read table[idx+1]
// at idx = S-2 without a modulo. Must be called exactly once, at construction, for any table
// used as a periodic oscillator source.
func (t *Table) equalizeEndAndBegin() {
	t.values[len(t.values)-1] = t.values[0]
}

func newTable(size int, generator func(k int) float64) (*Table, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("wavetable: size %d is not a power of two", size)
	}
	values := make([]float32, size)
	for k := range values {
		values[k] = float32(generator(k))
	}
	return &Table{values: values}, nil
}

// NewSine builds a one-period sine table of the given size.
func NewSine(size int) (*Table, error) {
	t, err := newTable(size, func(k int) float64 {
		theta := 2 * math.Pi * float64(k) / float64(size)
		return math.Sin(theta)
	})
	if err != nil {
		return nil, err
	}
	t.equalizeEndAndBegin()
	return t, nil
}

// NewSquare builds a one-period square table: -1 for theta < pi, +1 otherwise.
func NewSquare(size int) (*Table, error) {
	t, err := newTable(size, func(k int) float64 {
		theta := 2 * math.Pi * float64(k) / float64(size)
		if theta < math.Pi {
			return -1
		}
		return 1
	})
	if err != nil {
		return nil, err
	}
	t.equalizeEndAndBegin()
	return t, nil
}

// NewSaw builds a one-period descending ramp from +1 to -1, generated
// directly from normalized phase t = k/S rather than radians (see
// DESIGN.md and SPEC_FULL.md §9 on the saw normalization ambiguity).
func NewSaw(size int) (*Table, error) {
	t, err := newTable(size, func(k int) float64 {
		phase := float64(k) / float64(size)
		return 1 - 2*phase
	})
	if err != nil {
		return nil, err
	}
	t.equalizeEndAndBegin()
	return t, nil
}

// NewTriangle builds a one-period triangle table, piecewise linear over
// quarters of [0, 2pi) with peaks at +-1.
func NewTriangle(size int) (*Table, error) {
	t, err := newTable(size, func(k int) float64 {
		theta := 2 * math.Pi * float64(k) / float64(size)
		quarter := math.Pi / 2
		switch {
		case theta < quarter:
			return theta / quarter
		case theta < 3*quarter:
			return 1 - (theta-quarter)/quarter
		case theta < 4*quarter:
			return -1 + (theta-3*quarter)/quarter
		default:
			return 1 - (theta-4*quarter)/quarter
		}
	})
	if err != nil {
		return nil, err
	}
	t.equalizeEndAndBegin()
	return t, nil
}

// WindowTable is a windowing-family table plus the per-window
// compensation gain that restores unity passband under overlap-add
// at the hop size the ring buffer uses. Window coefficients are
// generated by gonum's dsp/window package rather than hand-rolled
// trigonometry, per SPEC_FULL.md's window-generation backend note.
type WindowTable struct {
	Table
	Compensation float32
}

func newWindowTable(size int, gen func([]float64) []float64, compensation float32) (*WindowTable, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("wavetable: window size %d is not a power of two", size)
	}
	coeffs := gen(ones(size))
	values := make([]float32, size)
	for i, c := range coeffs {
		values[i] = float32(c)
	}
	return &WindowTable{Table: Table{values: values}, Compensation: compensation}, nil
}

func ones(size int) []float64 {
	seq := make([]float64, size)
	for i := range seq {
		seq[i] = 1
	}
	return seq
}

// NewHann builds a Hann window table of the given size. The empirical
// compensation value (~1.2) restores unity passband at 50% overlap.
func NewHann(size int) (*WindowTable, error) {
	return newWindowTable(size, window.Hann, 1.2)
}

// NewHamming builds a Hamming window table of the given size.
func NewHamming(size int) (*WindowTable, error) {
	return newWindowTable(size, window.Hamming, 1.0)
}

// NewBartlett builds a Bartlett (triangular) window table of the given size.
func NewBartlett(size int) (*WindowTable, error) {
	return newWindowTable(size, window.Triangular, 2.0)
}
