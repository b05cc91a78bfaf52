// Package boost implements the AdaBoost ensemble learner (BDTLearner): a
// sequence of decision trees fit over reweighted copies of the same
// signal/background dataset, and the resulting weighted-ensemble model
// (BDTModel).
//
// The round structure — inner train, optional pruning, weighted
// misclassification scoring, multiplicative reweighting, renormalization —
// follows the boosting loop shape in Mimir_Go's training pipeline
// (pkg/mlmodel/training), generalized from its single-pass gradient update to
// this spec's explicit AdaBoost weight/alpha recurrence.
package boost

import (
	"errors"
	"fmt"
	"math"

	"github.com/evtboost/bdt/pkg/event"
	"github.com/evtboost/bdt/pkg/prune"
	"github.com/evtboost/bdt/pkg/rng"
	"github.com/evtboost/bdt/pkg/tree"
)

// Logger is the optional notification sink (§6): write-only progress text for
// long operations. Satisfied directly by *log.Logger.
type Logger interface {
	Printf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// Degenerate-round stop reasons (§9 Open Question, resolved in SPEC_FULL.md):
// boosting halts early rather than continuing to reweight against a perfect
// or no-better-than-chance tree.
var (
	ErrPerfectRound       = errors.New("boost: round produced a perfect tree (err_m = 0)")
	ErrNoBetterThanChance = errors.New("boost: round no better than chance (err_m >= 0.5)")
)

// errClampEps bounds err_m away from the degenerate values 0 and 1 before it
// is used to compute boost_factor, so a near-perfect (but not stopped) round
// never divides by zero or takes log(0).
const errClampEps = 1e-12

// ErrInvalidFrac is a range error (§7) for a FracRandomEvents outside (0,1].
var ErrInvalidFrac = errors.New("boost: frac_random_events out of (0,1]")

// Config holds BDTLearner's persisted hyperparameters (§4.4).
type Config struct {
	Tree             tree.Config
	Beta             float64 // default 1
	FracRandomEvents float64 // default 1, in (0,1]
	NumTrees         int     // default 300
	Quiet            bool
	BeforePruners    []prune.Pruner
	AfterPruners     []prune.Pruner
}

func (c Config) defaults() Config {
	if c.Beta == 0 {
		c.Beta = 1
	}
	if c.FracRandomEvents == 0 {
		c.FracRandomEvents = 1
	}
	if c.NumTrees == 0 {
		c.NumTrees = 300
	}
	return c
}

// Learner is the AdaBoost ensemble learner (BDTLearner): it wraps a
// contained DTLearner and drives the boosting loop of §4.4.
type Learner struct {
	Config
	Sampler *rng.Sampler
	Logger  Logger
}

// NewLearner validates cfg, applies defaults, and wraps sampler/logger.
func NewLearner(cfg Config, sampler *rng.Sampler, logger Logger) (*Learner, error) {
	cfg = cfg.defaults()
	if cfg.FracRandomEvents <= 0 || cfg.FracRandomEvents > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrac, cfg.FracRandomEvents)
	}
	if sampler == nil {
		sampler = rng.New(0)
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Learner{Config: cfg, Sampler: sampler, Logger: logger}, nil
}

// Train runs the AdaBoost loop of §4.4 over sigDS/bgDS, returning the
// ensemble model accumulated so far. Fewer than NumTrees rounds may complete
// if a degenerate round (err_m == 0 or err_m >= 0.5) stops the loop early.
func (l *Learner) Train(sigDS, bgDS event.Dataset) (*Model, error) {
	inner, err := tree.NewLearner(l.Tree, l.Sampler)
	if err != nil {
		return nil, fmt.Errorf("boost: inner learner: %w", err)
	}

	sigRows, sigW, err := projectAndWeigh(sigDS, inner.FeatureNames, inner.SigWeightName)
	if err != nil {
		return nil, fmt.Errorf("boost: signal dataset: %w", err)
	}
	bgRows, bgW, err := projectAndWeigh(bgDS, inner.FeatureNames, inner.BgWeightName)
	if err != nil {
		return nil, fmt.Errorf("boost: background dataset: %w", err)
	}
	rng.Normalize(sigW)
	rng.Normalize(bgW)

	nFeatures := len(inner.FeatureNames)
	savedMinSplit := inner.MinSplit
	if nFeatures > 0 {
		raised := (len(sigRows) + len(bgRows)) / (nFeatures * nFeatures) / 20
		if raised > savedMinSplit {
			inner.MinSplit = raised
		}
	}
	defer func() { inner.MinSplit = savedMinSplit }()

	var trees []*tree.Model
	var alphas []float64

	for m := 0; m < l.NumTrees; m++ {
		roundSigRows, roundSigW := sigRows, sigW
		roundBgRows, roundBgW := bgRows, bgW
		if l.FracRandomEvents < 1 {
			roundSigRows, roundSigW = subsample(l.Sampler, sigRows, sigW, l.FracRandomEvents)
			roundBgRows, roundBgW = subsample(l.Sampler, bgRows, bgW, l.FracRandomEvents)
		}

		model, err := inner.TrainGivenEverything(roundSigRows, roundBgRows, roundSigW, roundBgW)
		if err != nil {
			return nil, fmt.Errorf("boost: round %d: %w", m, err)
		}
		for _, p := range l.BeforePruners {
			p.Prune(model)
		}

		misSig, misBg := misclassifiedWeight(model, sigRows, sigW, bgRows, bgW)
		totalW := rng.Sum(sigW) + rng.Sum(bgW)
		var errM float64
		if totalW > 0 {
			errM = (misSig + misBg) / totalW
		}

		if errM == 0 {
			boostFactor := math.Pow((1-errClampEps)/errClampEps, l.Beta)
			alpha := 1.0
			if l.Beta > 0 {
				alpha = math.Log(boostFactor)
			}
			trees = append(trees, model)
			alphas = append(alphas, alpha)
			l.Logger.Printf("boost: round %d: %v, stopping early with %d trees", m, ErrPerfectRound, len(trees))
			break
		}
		if errM >= 0.5 {
			l.Logger.Printf("boost: round %d: %v (err_m=%.6f), stopping early with %d trees", m, ErrNoBetterThanChance, errM, len(trees))
			break
		}

		clamped := clip(errM, errClampEps, 1-errClampEps)
		boostFactor := math.Pow((1-clamped)/clamped, l.Beta)
		alpha := 1.0
		if l.Beta > 0 {
			alpha = math.Log(boostFactor)
		}

		reweight(model, sigRows, sigW, boostFactor, true)
		reweight(model, bgRows, bgW, boostFactor, false)
		rng.Normalize(sigW)
		rng.Normalize(bgW)

		for _, p := range l.AfterPruners {
			p.Prune(model)
		}

		trees = append(trees, model)
		alphas = append(alphas, alpha)
		if !l.Quiet {
			l.Logger.Printf("boost: round %d err_m=%.6f alpha=%.6f", m, errM, alpha)
		}
	}

	return NewModel(inner.FeatureNames, trees, alphas), nil
}

// projectAndWeigh mirrors tree.Learner.Train's projection/weight-extraction/
// finite-filtering contract, but returns the row matrix and weight vector
// directly so the caller can mutate weights across boosting rounds instead
// of handing them straight to a single Train call.
func projectAndWeigh(d event.Dataset, featureNames []string, weightName string) ([][]float64, []float64, error) {
	proj, err := event.Project(d, featureNames)
	if err != nil {
		return nil, nil, err
	}

	var w []float64
	if weightName == "" {
		w = make([]float64, d.Len())
		for i := range w {
			w[i] = 1
		}
	} else {
		col, ok := d.Column(weightName)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", tree.ErrMissingWeightColumn, weightName)
		}
		w = append([]float64(nil), col...)
	}

	n := proj.Len()
	rows := make([][]float64, 0, n)
	outW := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		row := event.Row(proj, featureNames, i)
		if !event.Finite(row) {
			continue
		}
		rows = append(rows, row)
		outW = append(outW, w[i])
	}
	return rows, outW, nil
}

func subsample(s *rng.Sampler, rows [][]float64, w []float64, frac float64) ([][]float64, []float64) {
	n := len(rows)
	k := int(frac * float64(n))
	idx := s.WithReplacement(n, k)
	outRows := make([][]float64, k)
	outW := make([]float64, k)
	for i, j := range idx {
		outRows[i] = rows[j]
		outW[i] = w[j]
	}
	return outRows, outW
}

// misclassifiedWeight scores every original event with model in label mode
// and sums the weight of misclassified events per class (§4.4 step 4-5).
func misclassifiedWeight(model *tree.Model, sigRows [][]float64, sigW []float64, bgRows [][]float64, bgW []float64) (misSig, misBg float64) {
	for i, row := range sigRows {
		if model.ScoreLabel(row) < 0 {
			misSig += sigW[i]
		}
	}
	for i, row := range bgRows {
		if model.ScoreLabel(row) > 0 {
			misBg += bgW[i]
		}
	}
	return
}

// reweight multiplies the weight of every misclassified event in rows by
// boostFactor, in place. isSig selects the misclassification rule: a signal
// event is misclassified if scored < 0, a background event if scored > 0.
func reweight(model *tree.Model, rows [][]float64, w []float64, boostFactor float64, isSig bool) {
	for i, row := range rows {
		score := model.ScoreLabel(row)
		misclassified := (isSig && score < 0) || (!isSig && score > 0)
		if misclassified {
			w[i] *= boostFactor
		}
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
