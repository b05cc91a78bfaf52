package boost

import (
	"fmt"
	"math"

	"github.com/evtboost/bdt/pkg/event"
	"github.com/evtboost/bdt/pkg/tree"
	"github.com/google/uuid"
)

// Model is the AdaBoost ensemble (BDTModel): an ordered sequence of DTModels
// with a parallel sequence of per-round coefficients alpha_m.
type Model struct {
	ID           string
	FeatureNames []string
	Trees        []*tree.Model
	Alphas       []float64
}

// NewModel wraps trees/alphas with featureNames, assigning a fresh ID.
func NewModel(featureNames []string, trees []*tree.Model, alphas []float64) *Model {
	return &Model{
		ID:           uuid.New().String(),
		FeatureNames: append([]string(nil), featureNames...),
		Trees:        trees,
		Alphas:       alphas,
	}
}

// maxResponse returns the Σ α_m denominator of Score. It is summed on every
// call; the value is not cached on the Model.
func (m *Model) maxResponse() float64 {
	var total float64
	for _, a := range m.Alphas {
		total += a
	}
	return total
}

// Score returns the ensemble score for row (§4.5): the alpha-weighted mean
// of per-tree scores, clipped to [-1, 1]. usePurity selects purity-mode
// (2*purity-1) scoring per tree instead of label mode (±1). NaN propagates
// for any event with a non-finite feature. A zero-tree or zero-weight
// ensemble scores 0.
func (m *Model) Score(row []float64, usePurity bool) float64 {
	if !event.Finite(row) {
		return math.NaN()
	}
	maxResp := m.maxResponse()
	if maxResp == 0 {
		return 0
	}
	var total float64
	for i, t := range m.Trees {
		total += m.Alphas[i] * t.ScoreEvent(row, usePurity)
	}
	return clip(total/maxResp, -1, 1)
}

// ScoreDataset projects ds onto m.FeatureNames and scores every event with
// Score, mirroring the original pybdt Model::score(const DataSet&, bool
// use_purity, bool quiet) batch entry point (model.hpp, model.cpp). If
// logger is non-nil, progress is reported every 5000 events and once more
// on completion, matching the Notifier<int> cadence in model.cpp's
// vector<Event> overload (notifier.hpp); a nil logger scores quietly.
func (m *Model) ScoreDataset(ds event.Dataset, usePurity bool, logger Logger) ([]float64, error) {
	proj, err := event.Project(ds, m.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("boost: score dataset: %w", err)
	}
	n := proj.Len()
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		row := event.Row(proj, m.FeatureNames, i)
		scores[i] = m.Score(row, usePurity)
		if logger != nil && (i+1)%5000 == 0 {
			logger.Printf("boost: scoring events | %d of %d (%.1f%%)", i+1, n, 100*float64(i+1)/float64(n))
		}
	}
	if logger != nil {
		logger.Printf("boost: scoring events | done")
	}
	return scores, nil
}

// Importance accumulates per-feature variable importance across the whole
// ensemble (§4.5): each tree's TreeImportance contribution summed across
// trees, optionally weighted by that tree's alpha_m, then normalized to a
// per-feature share.
func (m *Model) Importance(mode tree.ImportanceMode, weightByAlpha bool) map[string]float64 {
	contrib := make(map[int]float64)
	for i, t := range m.Trees {
		w := 1.0
		if weightByAlpha {
			w = m.Alphas[i]
		}
		for feat, v := range t.TreeImportance(mode) {
			contrib[feat] += w * v
		}
	}

	var total float64
	for _, v := range contrib {
		total += v
	}
	out := make(map[string]float64, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		if total == 0 {
			out[name] = 0
			continue
		}
		out[name] = contrib[i] / total
	}
	return out
}

// GetSubset returns a new Model over the half-open slice of trees [ni, nf).
func (m *Model) GetSubset(ni, nf int) *Model {
	return NewModel(m.FeatureNames,
		append([]*tree.Model(nil), m.Trees[ni:nf]...),
		append([]float64(nil), m.Alphas[ni:nf]...))
}

// GetSubsetByIndices returns a new Model over an arbitrary subsequence of
// trees named by index.
func (m *Model) GetSubsetByIndices(idx []int) *Model {
	trees := make([]*tree.Model, len(idx))
	alphas := make([]float64, len(idx))
	for i, j := range idx {
		trees[i] = m.Trees[j]
		alphas[i] = m.Alphas[j]
	}
	return NewModel(m.FeatureNames, trees, alphas)
}

// GetTrimmed returns a new Model keeping tree 0 always, and tree i (i >= 1)
// iff |alpha_i - alpha_{i-1}| / max_d > thresholdPct/100 (§4.5).
func (m *Model) GetTrimmed(thresholdPct float64) *Model {
	n := len(m.Alphas)
	if n == 0 {
		return NewModel(m.FeatureNames, nil, nil)
	}

	d := make([]float64, n)
	var maxD float64
	for i := 1; i < n; i++ {
		d[i] = math.Abs(m.Alphas[i] - m.Alphas[i-1])
		if d[i] > maxD {
			maxD = d[i]
		}
	}

	keep := []int{0}
	for i := 1; i < n; i++ {
		if maxD > 0 && d[i]/maxD > thresholdPct/100 {
			keep = append(keep, i)
		}
	}
	return m.GetSubsetByIndices(keep)
}
