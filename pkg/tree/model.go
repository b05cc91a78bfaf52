package tree

import (
	"fmt"
	"math"

	"github.com/evtboost/bdt/pkg/event"
	"github.com/google/uuid"
)

// Logger is the optional notification sink (§6): write-only progress text for
// long operations, satisfied directly by *log.Logger. A nil Logger means
// quiet, mirroring the original pybdt Model::score(const DataSet&, bool,
// bool)'s quiet flag (model.cpp), which gates a Notifier<int> progress print
// every 5000 events (notifier.hpp).
type Logger interface {
	Printf(format string, args ...interface{})
}

// Model wraps a root Node with the feature-name schema it was trained
// against. Node.FeatureIdx indexes into FeatureNames; the model resolves
// names for display rather than each node holding a back-pointer to it (see
// spec Design Notes on the owned-tree-with-back-pointer problem).
type Model struct {
	ID           string
	FeatureNames []string
	Root         *Node
}

// NewModel wraps root with featureNames, assigning a fresh ID.
func NewModel(featureNames []string, root *Node) *Model {
	return &Model{ID: uuid.New().String(), FeatureNames: append([]string(nil), featureNames...), Root: root}
}

// FeatureName resolves idx against the model's schema for display purposes.
func (m *Model) FeatureName(idx int) string {
	if idx < 0 || idx >= len(m.FeatureNames) {
		return ""
	}
	return m.FeatureNames[idx]
}

// leafFor walks row (already ordered per m.FeatureNames) down to its leaf.
func (m *Model) leafFor(row []float64) *Node {
	n := m.Root
	for !n.IsLeaf() {
		n = n.Route(row[n.FeatureIdx])
	}
	return n
}

// ScoreLabel returns the leaf label (+1/-1) for row, or NaN if row contains
// any non-finite component.
func (m *Model) ScoreLabel(row []float64) float64 {
	if !event.Finite(row) {
		return math.NaN()
	}
	return float64(m.leafFor(row).Label)
}

// ScorePurity returns 2*purity-1 for row's leaf, or NaN if row contains any
// non-finite component.
func (m *Model) ScorePurity(row []float64) float64 {
	if !event.Finite(row) {
		return math.NaN()
	}
	leaf := m.leafFor(row)
	return 2*leaf.Purity() - 1
}

// ScoreEvent scores row using label mode if usePurity is false, else purity
// mode, matching BDTModel's per-tree scoring switch (§4.5).
func (m *Model) ScoreEvent(row []float64, usePurity bool) float64 {
	if usePurity {
		return m.ScorePurity(row)
	}
	return m.ScoreLabel(row)
}

// ScoreDataset projects ds onto m.FeatureNames and scores every event in
// label or purity mode, mirroring the original pybdt Model::score(const
// DataSet&, bool use_purity, bool quiet) batch entry point (model.hpp,
// model.cpp). If logger is non-nil, progress is reported every 5000 events
// and once more on completion, matching the Notifier<int> cadence in
// model.cpp's vector<Event> overload (notifier.hpp); a nil logger scores
// quietly.
func (m *Model) ScoreDataset(ds event.Dataset, usePurity bool, logger Logger) ([]float64, error) {
	proj, err := event.Project(ds, m.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("tree: score dataset: %w", err)
	}
	n := proj.Len()
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		row := event.Row(proj, m.FeatureNames, i)
		scores[i] = m.ScoreEvent(row, usePurity)
		if logger != nil && (i+1)%5000 == 0 {
			logger.Printf("tree: scoring events | %d of %d (%.1f%%)", i+1, n, 100*float64(i+1)/float64(n))
		}
	}
	if logger != nil {
		logger.Printf("tree: scoring events | done")
	}
	return scores, nil
}

// ImportanceMode selects how a node's contribution to variable importance is
// weighted.
type ImportanceMode int

const (
	// ImportanceCount scores every internal node on the traced path equally
	// (weight 1).
	ImportanceCount ImportanceMode = iota
	// ImportanceSeparation weights a node by (sep_gain * w_total)^2.
	ImportanceSeparation
)

func nodeContribution(n *Node, mode ImportanceMode) float64 {
	if mode == ImportanceCount {
		return 1
	}
	total := n.WSig + n.WBg
	v := n.SepGain * total
	return v * v
}

// EventImportance accumulates, for a single scored event, the contribution of
// every internal node on the path from root to the event's leaf, indexed by
// feature. The returned map is not normalized.
func (m *Model) EventImportance(row []float64, mode ImportanceMode) map[int]float64 {
	out := make(map[int]float64)
	n := m.Root
	for !n.IsLeaf() {
		out[n.FeatureIdx] += nodeContribution(n, mode)
		n = n.Route(row[n.FeatureIdx])
	}
	return out
}

// TreeImportance accumulates the contribution of every internal node in the
// whole tree, indexed by feature. The returned map is not normalized.
func (m *Model) TreeImportance(mode ImportanceMode) map[int]float64 {
	out := make(map[int]float64)
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			return
		}
		out[n.FeatureIdx] += nodeContribution(n, mode)
		walk(n.Left)
		walk(n.Right)
	}
	walk(m.Root)
	return out
}

// NormalizedImportance returns contrib scaled so its values sum to 1, keyed
// by resolved feature name. An all-zero contrib (e.g. a single-leaf tree)
// yields an all-zero result rather than dividing by zero.
func (m *Model) NormalizedImportance(contrib map[int]float64) map[string]float64 {
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
