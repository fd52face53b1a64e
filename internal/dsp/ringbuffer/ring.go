// Package ringbuffer implements the dual-array staging buffer between
// the audio path and the analysis path: a live input ring the audio
// thread fills every sample, and a snapshot output ring the analysis
// thread owns from the moment CopyToOutput publishes it until the FFT
// worker is done with it. Keeping both arrays unexported and exposing
// FillInput/Advance/CopyToOutput/Clear, plus the Len and Output
// accessors, is this package's version
// of the friend-based coupling SPEC_FULL.md describes: the privilege
// to touch the raw arrays is scoped to this package, not granted to
// any caller.
package ringbuffer

import (
	"fmt"

	"spectral/internal/dsp/wavetable"
	"spectral/pkg/bitint"
)

// Sample matches the oscillator package's fixed compile-time scalar.
type Sample = float32

// Ring holds the live input array and the complex snapshot array the
// analysis path transforms in place.
type Ring struct {
	in       []Sample
	out      []complex128
	window   *wavetable.WindowTable
	cursor   int
	viewSize int
}

// New builds a ring of size n bound to window, whose length must also
// be n. The wrap/view size is fixed at n/2 per SPEC_FULL.md's resolved
// decision, giving 50% overlap unconditionally.
func New(n int, window *wavetable.WindowTable) (*Ring, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("ringbuffer: size %d is not a power of two", n)
	}
	if window.Len() != n {
		return nil, fmt.Errorf("ringbuffer: window size %d does not match ring size %d", window.Len(), n)
	}
	r := &Ring{
		in:       make([]Sample, n),
		out:      make([]complex128, n),
		window:   window,
		viewSize: n / 2,
	}
	return r, nil
}

// Len reports the ring size N.
func (r *Ring) Len() int { return len(r.in) }

// FillInput writes x, pre-gained by the bound window's compensation
// constant, at the current cursor position.
func (r *Ring) FillInput(x Sample) {
	r.in[r.cursor] = x * r.window.Compensation
}

// Advance moves the cursor forward by one sample, wrapping modulo N,
// and reports whether it just wrapped through the view size (N/2),
// the trigger for a new analysis snapshot.
func (r *Ring) Advance() bool {
	r.cursor++
	if r.cursor >= len(r.in) {
		r.cursor = 0
	}
	return r.cursor%r.viewSize == 0
}

// CopyToOutput elementwise windows the input ring into the complex
// output ring: out[k] := in[k]*window[k] + 0i. This is the only legal
// way to publish a snapshot to the analysis thread; after it returns,
// out is logically owned by the analysis thread until it signals
// completion.
func (r *Ring) CopyToOutput() {
	raw := r.window.Raw()
	for k := range r.in {
		r.out[k] = complex(float64(r.in[k]*raw[k]), 0)
	}
}

// Output exposes the complex snapshot for the FFT worker to transform
// in place. Callers must only use this after CopyToOutput and before
// signaling completion back to the audio path.
func (r *Ring) Output() []complex128 { return r.out }

// Clear zeros both arrays and resets the cursor.
func (r *Ring) Clear() {
	for i := range r.in {
		r.in[i] = 0
	}
	for i := range r.out {
		r.out[i] = 0
	}
	r.cursor = 0
}
