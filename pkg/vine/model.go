package vine

import (
	"fmt"
	"math"

	"github.com/evtboost/bdt/pkg/event"
	"github.com/evtboost/bdt/pkg/tree"
	"github.com/google/uuid"
)

// Model is the vine ensemble (VineModel): a sequence of sub-models paired
// with parallel half-open [bin_min, bin_max) intervals over one designated
// vine feature. Bins may overlap.
type Model struct {
	ID             string
	FeatureNames   []string
	VineFeature    string
	VineFeatureIdx int
	Mins, Maxs     []float64
	Models         []*tree.Model
}

// NewModel wraps models/mins/maxs with the training schema, assigning a
// fresh ID.
func NewModel(featureNames []string, vineFeature string, vineFeatureIdx int, mins, maxs []float64, models []*tree.Model) *Model {
	return &Model{
		ID:             uuid.New().String(),
		FeatureNames:   append([]string(nil), featureNames...),
		VineFeature:    vineFeature,
		VineFeatureIdx: vineFeatureIdx,
		Mins:           append([]float64(nil), mins...),
		Maxs:           append([]float64(nil), maxs...),
		Models:         models,
	}
}

// Score returns the arithmetic mean of every sub-model score whose window
// contains row's vine-feature value (§4.6). An event falling in no window
// scores 0. NaN propagates for any event with a non-finite feature.
func (m *Model) Score(row []float64, usePurity bool) float64 {
	if !event.Finite(row) {
		return math.NaN()
	}
	v := row[m.VineFeatureIdx]

	var total float64
	var n int
	for i, sub := range m.Models {
		if v >= m.Mins[i] && v < m.Maxs[i] {
			total += sub.ScoreEvent(row, usePurity)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
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
		return nil, fmt.Errorf("vine: score dataset: %w", err)
	}
	n := proj.Len()
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		row := event.Row(proj, m.FeatureNames, i)
		scores[i] = m.Score(row, usePurity)
		if logger != nil && (i+1)%5000 == 0 {
			logger.Printf("vine: scoring events | %d of %d (%.1f%%)", i+1, n, 100*float64(i+1)/float64(n))
		}
	}
	if logger != nil {
		logger.Printf("vine: scoring events | done")
	}
	return scores, nil
}
