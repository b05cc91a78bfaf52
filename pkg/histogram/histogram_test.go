package histogram

import (
	"math"
	"testing"
)

func TestLinearFillAndIndex(t *testing.T) {
	h := NewLinear(4, 0, 8)
	values := []float64{0, 1, 3.9, 4, 7.99, 8, -1, 100}
	weights := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	h.Fill(values, weights)

	// bins: [0,2) [2,4) [4,6) [6,8); -1 underflow, 8 and 100 overflow.
	want := []float64{2, 1, 1, 1}
	for i, w := range want {
		if got := h.Sum(i); got != w {
			t.Errorf("bin %d: got %v want %v", i, got, w)
		}
	}
}

func TestLinearEdges(t *testing.T) {
	h := NewLinear(2, 0, 10)
	if h.ValueForIndex(0) != 0 {
		t.Errorf("left edge = %v, want 0", h.ValueForIndex(0))
	}
	if h.ValueForIndex(2) != 10 {
		t.Errorf("right edge = %v, want 10", h.ValueForIndex(2))
	}
}

func TestNtileBoundariesCount(t *testing.T) {
	values := make([]float64, 100)
	weights := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
		weights[i] = 1
	}
	for _, n := range []int{1, 5, 10, 37} {
		edges := NtileBoundaries(n, values, weights)
		if len(edges) != n+1 {
			t.Errorf("n=%d: got %d edges, want %d", n, len(edges), n+1)
		}
		if edges[0] != 0 {
			t.Errorf("n=%d: first edge = %v, want 0", n, edges[0])
		}
		if edges[n] != 99 {
			t.Errorf("n=%d: last edge = %v, want 99", n, edges[n])
		}
	}
}

func TestNtileBoundariesApproxEqualWeight(t *testing.T) {
	values := make([]float64, 1000)
	weights := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i)
		weights[i] = 1
	}
	edges := NtileBoundaries(10, values, weights)
	h := NewNonlinear(edges)
	h.Fill(values, weights)

	want := 100.0
	for i := 0; i < h.NBins(); i++ {
		if math.Abs(h.Sum(i)-want) > want*0.25 {
			t.Errorf("bin %d sum = %v, want near %v", i, h.Sum(i), want)
		}
	}
}

func TestRange(t *testing.T) {
	min, max := Range([]float64{3, 1, 4}, []float64{1, 5, 9, 2, 6})
	if min != 1 || max != 9 {
		t.Errorf("got (%v, %v), want (1, 9)", min, max)
	}
}
