// Package rng provides the deterministic random-index sampler the tree and
// boosting learners use for candidate-feature subsampling and bootstrap event
// subsampling, plus the weight-vector reductions ("common utilities") those
// learners share.
//
// The sampling routines follow the Fisher-Yates partial shuffle used by
// wlattner/rf/tree.Classifier.fit (Algorithm P, Knuth Vol. 2 p.145) and the
// bootstrap-with-replacement helper in wlattner/rf/forest.Classifier.Fit.
package rng

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Sampler is an explicit, seedable source of index draws. Owning it on the
// learner (rather than relying on a package-level global) makes a training
// run reproducible given a fixed seed, per the spec's determinism guarantee.
type Sampler struct {
	rng *rand.Rand
}

// New returns a Sampler seeded deterministically.
func New(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Uint32 returns a uniform value over the 32-bit range.
func (s *Sampler) Uint32() uint32 {
	return s.rng.Uint32()
}

// Intn returns a uniform value in [0, n).
func (s *Sampler) Intn(n int) int {
	return s.rng.Intn(n)
}

// Float64 returns a uniform value in [0, 1).
func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// WithoutReplacement draws k distinct indices from [0, n) using a partial
// Fisher-Yates shuffle. If k >= n, the returned slice is a permutation of
// [0, n).
func (s *Sampler) WithoutReplacement(n, k int) []int {
	if k > n {
		k = n
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// WithReplacement draws k indices from [0, n), each chosen independently and
// uniformly; duplicates are expected.
func (s *Sampler) WithReplacement(n, k int) []int {
	out := make([]int, k)
	for i := range out {
		out[i] = s.rng.Intn(n)
	}
	return out
}

// Normalize scales w in place so its elements sum to 1. A zero-sum vector is
// left unchanged (caller-visible as a degenerate-input condition, see §7).
func Normalize(w []float64) {
	total := floats.Sum(w)
	if total == 0 {
		return
	}
	floats.Scale(1/total, w)
}

// Sum returns the sum of w via gonum's reduction (used throughout for
// weighted totals: w_sig, w_bg, per-round misclassified weight, etc).
func Sum(w []float64) float64 {
	return floats.Sum(w)
}
