package modelstore

import (
	"path/filepath"
	"testing"

	"github.com/evtboost/bdt/pkg/boost"
	"github.com/evtboost/bdt/pkg/event"
	"github.com/evtboost/bdt/pkg/rng"
	"github.com/evtboost/bdt/pkg/tree"
	"github.com/evtboost/bdt/pkg/vine"
)

func mustTable(t *testing.T, cols map[string][]float64) *event.Table {
	t.Helper()
	tb, err := event.NewTable(cols, nil, nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tb
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "models.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTreeModelRoundTrip(t *testing.T) {
	sig := mustTable(t, map[string][]float64{"x": {1, 1, 1, 1}})
	bg := mustTable(t, map[string][]float64{"x": {-1, -1, -1, -1}})
	learner, err := tree.NewLearner(tree.Config{FeatureNames: []string{"x"}, MinSplit: 1, MaxDepth: 1}, rng.New(1))
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	s := openTestStore(t)
	if err := s.SaveTreeModel(model); err != nil {
		t.Fatalf("SaveTreeModel: %v", err)
	}
	got, err := s.LoadTreeModel(model.ID)
	if err != nil {
		t.Fatalf("LoadTreeModel: %v", err)
	}
	if got.ScoreLabel([]float64{1}) != model.ScoreLabel([]float64{1}) {
		t.Errorf("round-tripped model scores differently on [1]")
	}
	if got.ScoreLabel([]float64{-1}) != model.ScoreLabel([]float64{-1}) {
		t.Errorf("round-tripped model scores differently on [-1]")
	}
}

func TestBoostModelRoundTrip(t *testing.T) {
	sig := mustTable(t, map[string][]float64{"x": {1, 1, 1, 1}})
	bg := mustTable(t, map[string][]float64{"x": {-1, -1, -1, -1}})
	learner, err := boost.NewLearner(boost.Config{
		Tree:     tree.Config{FeatureNames: []string{"x"}, MinSplit: 1, MaxDepth: 1},
		NumTrees: 3,
	}, rng.New(1), nil)
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	s := openTestStore(t)
	if err := s.SaveBoostModel(model); err != nil {
		t.Fatalf("SaveBoostModel: %v", err)
	}
	got, err := s.LoadBoostModel(model.ID)
	if err != nil {
		t.Fatalf("LoadBoostModel: %v", err)
	}
	if got.Score([]float64{1}, false) != model.Score([]float64{1}, false) {
		t.Errorf("round-tripped ensemble scores differently on [1]")
	}
}

func TestVineModelRoundTrip(t *testing.T) {
	n := 40
	sigV := make([]float64, n)
	bgV := make([]float64, n)
	for i := range sigV {
		sigV[i] = float64(i) / float64(n)
		bgV[i] = float64(i) / float64(n)
	}
	sig := mustTable(t, map[string][]float64{"v": sigV})
	bg := mustTable(t, map[string][]float64{"v": bgV})

	learner, err := vine.NewLearner(vine.Config{
		Tree:        tree.Config{FeatureNames: []string{"v"}, MinSplit: 1},
		VineFeature: "v",
		Min:         0,
		Max:         1,
		Width:       0.5,
		Step:        0.5,
	}, rng.New(1), nil)
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	s := openTestStore(t)
	if err := s.SaveVineModel(model); err != nil {
		t.Fatalf("SaveVineModel: %v", err)
	}
	got, err := s.LoadVineModel(model.ID)
	if err != nil {
		t.Fatalf("LoadVineModel: %v", err)
	}
	if got.Score([]float64{0.1}, false) != model.Score([]float64{0.1}, false) {
		t.Errorf("round-tripped vine model scores differently on [0.1]")
	}
}
