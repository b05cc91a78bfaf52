// Package histogram implements the univariate, weighted histograms the
// decision-tree split search fills candidate cut statistics into: a
// fixed-width Linear variant and a Nonlinear (quantile-binned) variant built
// from explicit, approximately-equal-weight bin edges.
//
// The shape mirrors the sort-then-scan split search in
// wlattner/rf/tree.Classifier.bestSplit, generalized from a single running
// left/right scan over sorted values to binned left/right totals scanned
// across bin boundaries.
package histogram

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Histogram accumulates weighted sums into fixed bins over a univariate
// range and exposes the per-bin totals the split search scans.
type Histogram struct {
	edges []float64 // len(edges) == n_bins+1; edges[i] is the left edge of bin i
	sums  []float64
	kind  string
}

// NBins returns the number of bins.
func (h *Histogram) NBins() int { return len(h.sums) }

// Sum returns the accumulated weighted sum in bin i.
func (h *Histogram) Sum(i int) float64 { return h.sums[i] }

// ValueForIndex returns the left edge of bin i. Passing n_bins returns the
// right edge of the last bin (the histogram's max value), so
// ValueForIndex(i+1) yields bin i's right edge.
func (h *Histogram) ValueForIndex(i int) float64 { return h.edges[i] }

// NewLinear builds a histogram of nBins equal-width bins over [min, max).
// Values below min land in an implicit underflow bin; values >= max land in
// an implicit overflow bin. Neither underflow nor overflow participates in
// cut search (see Fill).
func NewLinear(nBins int, min, max float64) *Histogram {
	if nBins < 1 {
		nBins = 1
	}
	edges := make([]float64, nBins+1)
	width := (max - min) / float64(nBins)
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	edges[nBins] = max
	return &Histogram{edges: edges, sums: make([]float64, nBins), kind: "linear"}
}

// NewNonlinear builds a histogram from explicit, pre-computed bin edges (as
// produced by NtileBoundaries). len(edges) must be n_bins+1.
func NewNonlinear(edges []float64) *Histogram {
	cp := append([]float64(nil), edges...)
	return &Histogram{edges: cp, sums: make([]float64, len(cp)-1), kind: "nonlinear"}
}

// IndexForValue returns the bin index for v, or -1 (underflow) / NBins()
// (overflow) if v falls outside [edges[0], edges[n]).
func (h *Histogram) IndexForValue(v float64) int {
	n := h.NBins()
	if v < h.edges[0] {
		return -1
	}
	if v >= h.edges[n] {
		return n
	}
	if h.kind == "linear" {
		width := (h.edges[n] - h.edges[0]) / float64(n)
		idx := int((v - h.edges[0]) / width)
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
		return idx
	}
	// Nonlinear: binary search the sorted edges for the last edge <= v, so
	// that with repeated edges v lands in the bin it lies inside rather than
	// in a zero-width bin whose right edge equals v.
	idx := sort.Search(len(h.edges), func(i int) bool { return h.edges[i] > v }) - 1
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

// Fill accumulates weights into bins by the corresponding values. len(values)
// must equal len(weights). Out-of-range values are silently dropped (they
// never participate in the split scan).
func (h *Histogram) Fill(values, weights []float64) {
	for i, v := range values {
		idx := h.IndexForValue(v)
		if idx < 0 || idx >= h.NBins() {
			continue
		}
		h.sums[idx] += weights[i]
	}
}

// Total returns the sum over all bins.
func (h *Histogram) Total() float64 {
	return floats.Sum(h.sums)
}

// NtileBoundaries walks values sorted ascending (carrying weights along),
// emitting a boundary edge whenever accumulated weight crosses a 1/n share of
// the total. The remainder (accumulated - quota) carries over into the next
// bin's accumulation so bins approximate, rather than exactly split, equal
// weight. The first edge is the minimum value and the last is the maximum;
// the result always has exactly n+1 edges (padded with the max if fewer cut
// points were produced by the walk).
func NtileBoundaries(n int, values, weights []float64) []float64 {
	if n < 1 {
		n = 1
	}
	if len(values) == 0 {
		return make([]float64, n+1)
	}

	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	total := floats.Sum(weights)
	quota := total / float64(n)

	edges := make([]float64, 0, n+1)
	edges = append(edges, values[idx[0]])

	var accumulated float64
	for _, i := range idx {
		accumulated += weights[i]
		if quota > 0 && accumulated >= quota && len(edges) < n {
			edges = append(edges, values[i])
			accumulated -= quota
		}
	}

	maxVal := values[idx[len(idx)-1]]
	for len(edges) < n+1 {
		edges = append(edges, maxVal)
	}
	edges[n] = maxVal
	return edges
}

// Range returns the min and max over the union of two value slices, used to
// size a Linear histogram's range over a candidate split feature.
func Range(a, b []float64) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range a {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	for _, v := range b {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
