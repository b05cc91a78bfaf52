// Package vine implements the vine ensemble (§4.6): a sequence of
// independent base-model slices trained over overlapping windows of one
// designated feature, averaged at inference.
//
// The windowing/slice-then-delegate shape is grounded on the same
// project-then-delegate contract as tree.Learner.TrainGivenEverything: each
// window is just a differently-filtered row matrix handed to the same inner
// DTLearner.
package vine

import (
	"fmt"

	"github.com/evtboost/bdt/pkg/event"
	"github.com/evtboost/bdt/pkg/rng"
	"github.com/evtboost/bdt/pkg/tree"
)

// Logger is the optional notification sink (§6): write-only progress text for
// long operations, satisfied directly by *log.Logger. A nil Logger means
// quiet, mirroring VineLearner's own m_quiet flag (vinelearner.hpp,
// vinelearner.cpp), which gates a per-window progress print in
// train_given_everything.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Config holds VineLearner's persisted hyperparameters (§4.6).
type Config struct {
	Tree        tree.Config
	VineFeature string // must be one of Tree.FeatureNames
	Min, Max    float64
	Width       float64
	Step        float64
}

// Learner is the vine ensemble learner (VineLearner).
type Learner struct {
	Config
	Sampler *rng.Sampler
	Logger  Logger
}

// NewLearner validates cfg and wraps sampler/logger. A nil logger trains
// quietly.
func NewLearner(cfg Config, sampler *rng.Sampler, logger Logger) (*Learner, error) {
	if cfg.Width <= 0 {
		return nil, fmt.Errorf("vine: width must be positive, got %v", cfg.Width)
	}
	if cfg.Step <= 0 {
		return nil, fmt.Errorf("vine: step must be positive, got %v", cfg.Step)
	}
	if cfg.Max <= cfg.Min {
		return nil, fmt.Errorf("vine: max (%v) must exceed min (%v)", cfg.Max, cfg.Min)
	}
	if sampler == nil {
		sampler = rng.New(0)
	}
	return &Learner{Config: cfg, Sampler: sampler, Logger: logger}, nil
}

// Windows returns the half-open [lo, hi) windows generated by f = min,
// min+step, min+2*step, ... while f+width <= max.
func (l *Learner) Windows() [][2]float64 {
	var out [][2]float64
	for f := l.Min; f+l.Width <= l.Max; f += l.Step {
		out = append(out, [2]float64{f, f + l.Width})
	}
	return out
}

// Train builds one base DTModel per window of l.VineFeature, each trained
// only on events whose vine-feature value falls in that window (§4.6).
func (l *Learner) Train(sigDS, bgDS event.Dataset) (*Model, error) {
	inner, err := tree.NewLearner(l.Tree, l.Sampler)
	if err != nil {
		return nil, fmt.Errorf("vine: inner learner: %w", err)
	}

	vineIdx := -1
	for i, name := range inner.FeatureNames {
		if name == l.VineFeature {
			vineIdx = i
			break
		}
	}
	if vineIdx < 0 {
		return nil, fmt.Errorf("vine: vine_feature %q not in feature set", l.VineFeature)
	}

	sigRows, sigW, err := projectAndWeigh(sigDS, inner.FeatureNames, inner.SigWeightName)
	if err != nil {
		return nil, fmt.Errorf("vine: signal dataset: %w", err)
	}
	bgRows, bgW, err := projectAndWeigh(bgDS, inner.FeatureNames, inner.BgWeightName)
	if err != nil {
		return nil, fmt.Errorf("vine: background dataset: %w", err)
	}

	windows := l.Windows()
	models := make([]*tree.Model, len(windows))
	mins := make([]float64, len(windows))
	maxs := make([]float64, len(windows))

	for wi, w := range windows {
		if l.Logger != nil {
			l.Logger.Printf("vine: working on %v <= %s < %v...", w[0], l.VineFeature, w[1])
		}

		sigWinRows, sigWinW := sliceWindow(sigRows, sigW, vineIdx, w[0], w[1])
		bgWinRows, bgWinW := sliceWindow(bgRows, bgW, vineIdx, w[0], w[1])

		m, err := inner.TrainGivenEverything(sigWinRows, bgWinRows, sigWinW, bgWinW)
		if err != nil {
			return nil, fmt.Errorf("vine: window %d [%v,%v): %w", wi, w[0], w[1], err)
		}
		models[wi] = m
		mins[wi], maxs[wi] = w[0], w[1]
	}

	return NewModel(inner.FeatureNames, l.VineFeature, vineIdx, mins, maxs, models), nil
}

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
	rng.Normalize(outW)
	return rows, outW, nil
}

// sliceWindow returns the subset of rows/weights whose value at vineIdx
// falls in the half-open interval [lo, hi).
func sliceWindow(rows [][]float64, w []float64, vineIdx int, lo, hi float64) ([][]float64, []float64) {
	var outRows [][]float64
	var outW []float64
	for i, row := range rows {
		v := row[vineIdx]
		if v >= lo && v < hi {
			outRows = append(outRows, row)
			outW = append(outW, w[i])
		}
	}
	return outRows, outW
}
