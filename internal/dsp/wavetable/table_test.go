package wavetable

import (
	"fmt"
	"testing"
)

func TestPeriodicTablesEqualizeEndAndBegin(t *testing.T) {
	constructors := map[string]func(int) (*Table, error){
		"sine":     NewSine,
		"square":   NewSquare,
		"saw":      NewSaw,
		"triangle": NewTriangle,
	}

	for name, ctor := range constructors {
		t.Run(name, func(t *testing.T) {
			for _, size := range []int{16, 64, 256, 1024} {
				t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
					tbl, err := ctor(size)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					if got, want := tbl.At(size-1), tbl.At(0); got != want {
						t.Errorf("table[S-1] = %v, want table[0] = %v", got, want)
					}
				})
			}
		})
	}
}

func TestNewTableRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := NewSine(100); err == nil {
		t.Fatal("expected error for non-power-of-two size")
	}
}

func TestSquareTableRange(t *testing.T) {
	tbl, err := NewSquare(64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < tbl.Len(); i++ {
		v := tbl.At(i)
		if v != 1 && v != -1 {
			t.Fatalf("square[%d] = %v, want +-1", i, v)
		}
	}
}

func TestTriangleTablePeaks(t *testing.T) {
	tbl, err := NewTriangle(256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var max, min float32
	for i := 0; i < tbl.Len(); i++ {
		v := tbl.At(i)
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	if max < 0.95 || max > 1.0001 {
		t.Errorf("triangle max = %v, want ~1", max)
	}
	if min > -0.95 || min < -1.0001 {
		t.Errorf("triangle min = %v, want ~-1", min)
	}
}

func TestWindowTablesHaveCompensation(t *testing.T) {
	windows := map[string]func(int) (*WindowTable, error){
		"hann":     NewHann,
		"hamming":  NewHamming,
		"bartlett": NewBartlett,
	}
	for name, ctor := range windows {
		t.Run(name, func(t *testing.T) {
			wt, err := ctor(1024)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if wt.Compensation <= 0 {
				t.Errorf("compensation = %v, want > 0", wt.Compensation)
			}
			if wt.Len() != 1024 {
				t.Errorf("len = %d, want 1024", wt.Len())
			}
			// a window should taper toward its edges relative to its center
			center := wt.At(wt.Len() / 2)
			edge := wt.At(0)
			if edge > center {
				t.Errorf("edge coefficient %v should not exceed center %v", edge, center)
			}
		})
	}
}

func TestWindowTableRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := NewHann(100); err == nil {
		t.Fatal("expected error for non-power-of-two size")
	}
}
