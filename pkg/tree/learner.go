package tree

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/evtboost/bdt/pkg/event"
	"github.com/evtboost/bdt/pkg/histogram"
	"github.com/evtboost/bdt/pkg/impurity"
	"github.com/evtboost/bdt/pkg/rng"
)

// ErrMissingWeightColumn is a schema error (§7): a configured weight column
// name was not found in the dataset handed to Train.
var ErrMissingWeightColumn = errors.New("tree: missing weight column")

// Config holds a DTLearner's persisted hyperparameters (§4.2).
type Config struct {
	FeatureNames       []string
	SigWeightName      string // empty = uniform weights
	BgWeightName       string // empty = uniform weights
	MaxDepth           int    // default 5
	MinSplit           int    // default 20, unweighted event count
	NumCuts            int    // default 20, histogram resolution
	LinearCuts         bool   // no default applied: false (the zero value) selects quantile binning
	NumRandomVariables int    // default 0 (consider all features)
	Separation         impurity.Separation
}

// defaults fills zero-valued numeric fields with their defaults. Separation
// needs no check ("" resolves to gini). LinearCuts is left as given: an
// unset LinearCuts is false and selects quantile binning.
func (c Config) defaults() Config {
	if c.MaxDepth == 0 {
		c.MaxDepth = 5
	}
	if c.MinSplit == 0 {
		c.MinSplit = 20
	}
	if c.NumCuts == 0 {
		c.NumCuts = 20
	}
	return c
}

// Learner is the decision-tree learner (DTLearner). FeatureNames is sorted
// at construction so trained node FeatureIdx values remain meaningful across
// training runs that share a feature universe (spec Design Notes, §9).
type Learner struct {
	Config
	Sampler    *rng.Sampler
	impurityFn impurity.Func
}

// NewLearner validates cfg, applies defaults, sorts FeatureNames, and resolves
// the configured Separation to its impurity function.
func NewLearner(cfg Config, sampler *rng.Sampler) (*Learner, error) {
	cfg = cfg.defaults()
	fn, err := impurity.Of(cfg.Separation)
	if err != nil {
		return nil, err
	}
	names := append([]string(nil), cfg.FeatureNames...)
	sort.Strings(names)
	cfg.FeatureNames = names
	if sampler == nil {
		sampler = rng.New(0)
	}
	return &Learner{Config: cfg, Sampler: sampler, impurityFn: fn}, nil
}

// Train implements the training contract of §4.2: project both datasets onto
// this learner's feature set, extract and normalize class weights, drop
// non-finite events, and hand the survivors to TrainGivenEverything.
func (l *Learner) Train(sigDS, bgDS event.Dataset) (*Model, error) {
	sigProj, err := event.Project(sigDS, l.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("tree: project signal dataset: %w", err)
	}
	bgProj, err := event.Project(bgDS, l.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("tree: project background dataset: %w", err)
	}

	sigW, err := l.extractWeights(sigDS, l.SigWeightName)
	if err != nil {
		return nil, err
	}
	bgW, err := l.extractWeights(bgDS, l.BgWeightName)
	if err != nil {
		return nil, err
	}
	rng.Normalize(sigW)
	rng.Normalize(bgW)

	sigRows, sigW := finiteRows(sigProj, l.FeatureNames, sigW)
	bgRows, bgW := finiteRows(bgProj, l.FeatureNames, bgW)

	return l.TrainGivenEverything(sigRows, bgRows, sigW, bgW)
}

func (l *Learner) extractWeights(d event.Dataset, name string) ([]float64, error) {
	if name == "" {
		w := make([]float64, d.Len())
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	col, ok := d.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingWeightColumn, name)
	}
	return append([]float64(nil), col...), nil
}

// finiteRows converts a projected Table into row-major feature vectors,
// dropping any row with a non-finite component and its aligned weight.
func finiteRows(t *event.Table, names []string, weights []float64) ([][]float64, []float64) {
	n := t.Len()
	rows := make([][]float64, 0, n)
	outW := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		row := event.Row(t, names, i)
		if !event.Finite(row) {
			continue
		}
		rows = append(rows, row)
		outW = append(outW, weights[i])
	}
	return rows, outW
}

// TrainGivenEverything builds a tree directly from already-filtered,
// weight-aligned row matrices, bypassing dataset projection and weight
// extraction. BDTLearner calls this after subsampling; VineLearner calls it
// after slicing events into a window.
func (l *Learner) TrainGivenEverything(sigRows, bgRows [][]float64, sigW, bgW []float64) (*Model, error) {
	root := l.build(sigRows, bgRows, sigW, bgW, 0)
	return NewModel(l.FeatureNames, root), nil
}

// build is the recursive tree-construction routine of §4.2.
func (l *Learner) build(sigRows, bgRows [][]float64, sigW, bgW []float64, depth int) *Node {
	nSig, nBg := len(sigRows), len(bgRows)

	if nSig+nBg < l.MinSplit || depth == l.MaxDepth || nSig == 0 || nBg == 0 {
		return l.leafFrom(sigW, bgW, nSig, nBg)
	}

	split, ok := l.bestSplit(sigRows, bgRows, sigW, bgW)
	if !ok {
		return l.leafFrom(sigW, bgW, nSig, nBg)
	}

	sigL, sigLW, sigR, sigRW := partition(sigRows, sigW, split.feature, split.cut)
	bgL, bgLW, bgR, bgRW := partition(bgRows, bgW, split.feature, split.cut)

	left := l.build(sigL, bgL, sigLW, bgLW, depth+1)
	right := l.build(sigR, bgR, sigRW, bgRW, depth+1)

	wSig, wBg := rng.Sum(sigW), rng.Sum(bgW)
	purity := 0.0
	if wSig+wBg > 0 {
		purity = wSig / (wSig + wBg)
	}

	return &Node{
		WSig:       wSig,
		WBg:        wBg,
		NSig:       nSig,
		NBg:        nBg,
		SepIndex:   l.impurityFn(purity),
		Label:      labelFor(wSig, wBg),
		FeatureIdx: split.feature,
		CutVal:     split.cut,
		SepGain:    split.gain,
		Left:       left,
		Right:      right,
	}
}

func (l *Learner) leafFrom(sigW, bgW []float64, nSig, nBg int) *Node {
	wSig, wBg := rng.Sum(sigW), rng.Sum(bgW)
	purity := 0.0
	if wSig+wBg > 0 {
		purity = wSig / (wSig + wBg)
	}
	return newLeaf(wSig, wBg, nSig, nBg, l.impurityFn(purity))
}

func partition(rows [][]float64, w []float64, feature int, cut float64) (leftRows [][]float64, leftW []float64, rightRows [][]float64, rightW []float64) {
	for i, row := range rows {
		if row[feature] < cut {
			leftRows = append(leftRows, row)
			leftW = append(leftW, w[i])
		} else {
			rightRows = append(rightRows, row)
			rightW = append(rightW, w[i])
		}
	}
	return
}

type splitCandidate struct {
	feature int
	cut     float64
	gain    float64
}

// bestSplit scans every candidate feature's histogram-binned boundaries and
// returns the single best (feature, cut) by separation gain, per §4.2 step
// "select candidate features ... for each candidate feature f ...".
func (l *Learner) bestSplit(sigRows, bgRows [][]float64, sigW, bgW []float64) (splitCandidate, bool) {
	candidates := l.candidateFeatures()

	var best splitCandidate
	found := false

	for _, f := range candidates {
		sigVals := column(sigRows, f)
		bgVals := column(bgRows, f)
		min, max := histogram.Range(sigVals, bgVals)
		if min >= max {
			continue // constant feature, no cut possible
		}

		// The top edge sits one step above max so that events at the
		// feature maximum land in the last bin rather than in overflow.
		top := math.Nextafter(max, math.Inf(1))
		var wSigHist, wBgHist, nSigHist, nBgHist *histogram.Histogram
		if l.LinearCuts {
			nBins := l.NumCuts + 1
			wSigHist = histogram.NewLinear(nBins, min, top)
			wBgHist = histogram.NewLinear(nBins, min, top)
			nSigHist = histogram.NewLinear(nBins, min, top)
			nBgHist = histogram.NewLinear(nBins, min, top)
		} else {
			allVals := append(append([]float64(nil), sigVals...), bgVals...)
			allWeights := append(append([]float64(nil), sigW...), bgW...)
			edges := histogram.NtileBoundaries(l.NumCuts, allVals, allWeights)
			edges[len(edges)-1] = top
			wSigHist = histogram.NewNonlinear(edges)
			wBgHist = histogram.NewNonlinear(edges)
			nSigHist = histogram.NewNonlinear(edges)
			nBgHist = histogram.NewNonlinear(edges)
		}

		ones := func(n int) []float64 {
			o := make([]float64, n)
			for i := range o {
				o[i] = 1
			}
			return o
		}

		wSigHist.Fill(sigVals, sigW)
		wBgHist.Fill(bgVals, bgW)
		nSigHist.Fill(sigVals, ones(len(sigVals)))
		nBgHist.Fill(bgVals, ones(len(bgVals)))

		totalWSig, totalWBg := wSigHist.Total(), wBgHist.Total()
		totalW := totalWSig + totalWBg
		var totalPurity float64
		if totalW > 0 {
			totalPurity = totalWSig / totalW
		}
		totalI := l.impurityFn(totalPurity)

		var leftWSig, leftWBg, leftNSig, leftNBg float64
		nBins := wSigHist.NBins()
		for i := 0; i < nBins-1; i++ {
			leftWSig += wSigHist.Sum(i)
			leftWBg += wBgHist.Sum(i)
			leftNSig += nSigHist.Sum(i)
			leftNBg += nBgHist.Sum(i)

			nLeft := leftNSig + leftNBg
			nRight := float64(len(sigVals)+len(bgVals)) - nLeft

			if int(nLeft) < l.MinSplit {
				continue
			}
			if int(nRight) < l.MinSplit {
				break
			}

			leftW := leftWSig + leftWBg
			rightWSig := totalWSig - leftWSig
			rightWBg := totalWBg - leftWBg
			rightW := rightWSig + rightWBg

			if leftW <= 0 || rightW <= 0 {
				continue
			}

			purityLeft := leftWSig / leftW
			purityRight := rightWSig / rightW

			gain := totalW*totalI - leftW*l.impurityFn(purityLeft) - rightW*l.impurityFn(purityRight)

			if !found || gain > best.gain {
				found = true
				best = splitCandidate{feature: f, cut: wSigHist.ValueForIndex(i + 1), gain: gain}
			}
		}
	}

	if !found || best.gain <= 0 {
		return splitCandidate{}, false
	}
	return best, true
}

func (l *Learner) candidateFeatures() []int {
	n := len(l.FeatureNames)
	if l.NumRandomVariables <= 0 || l.NumRandomVariables >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return l.Sampler.WithoutReplacement(n, l.NumRandomVariables)
}

func column(rows [][]float64, feature int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[feature]
	}
	return out
}
