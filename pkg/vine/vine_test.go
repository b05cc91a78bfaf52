package vine

import (
	"fmt"
	"math"
	"testing"

	"github.com/evtboost/bdt/pkg/event"
	"github.com/evtboost/bdt/pkg/rng"
	"github.com/evtboost/bdt/pkg/tree"
)

func mustTable(t *testing.T, cols map[string][]float64) *event.Table {
	t.Helper()
	tb, err := event.NewTable(cols, nil, nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tb
}

func TestWindowGeneration(t *testing.T) {
	l, err := NewLearner(Config{
		Tree:        tree.Config{FeatureNames: []string{"v"}},
		VineFeature: "v",
		Min:         0,
		Max:         1,
		Width:       0.5,
		Step:        0.25,
	}, rng.New(1), nil)
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	windows := l.Windows()
	want := [][2]float64{{0, 0.5}, {0.25, 0.75}, {0.5, 1}}
	if len(windows) != len(want) {
		t.Fatalf("got %d windows, want %d: %v", len(windows), len(want), windows)
	}
	for i := range want {
		if math.Abs(windows[i][0]-want[i][0]) > 1e-9 || math.Abs(windows[i][1]-want[i][1]) > 1e-9 {
			t.Errorf("window %d = %v, want %v", i, windows[i], want[i])
		}
	}
}

// TestVineAveraging implements spec scenario 6: an event with v=0.4 is
// scored by windows 0 ([0,0.5)) and 1 ([0.25,0.75)) only.
func TestVineAveraging(t *testing.T) {
	n := 60
	sigV := make([]float64, n)
	sigX := make([]float64, n)
	bgV := make([]float64, n)
	bgX := make([]float64, n)
	for i := range sigV {
		sigV[i] = float64(i) / float64(n)
		sigX[i] = 1
		bgV[i] = float64(i) / float64(n)
		bgX[i] = -1
	}
	sig := mustTable(t, map[string][]float64{"v": sigV, "x": sigX})
	bg := mustTable(t, map[string][]float64{"v": bgV, "x": bgX})

	learner, err := NewLearner(Config{
		Tree:        tree.Config{FeatureNames: []string{"v", "x"}, MaxDepth: 1, MinSplit: 1, NumCuts: 5},
		VineFeature: "v",
		Min:         0,
		Max:         1,
		Width:       0.5,
		Step:        0.25,
	}, rng.New(2), nil)
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(model.Models) != 3 {
		t.Fatalf("got %d sub-models, want 3", len(model.Models))
	}

	row := []float64{0.4, 1}
	got := model.Score(row, false)

	want := (model.Models[0].ScoreEvent(row, false) + model.Models[1].ScoreEvent(row, false)) / 2
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Score(v=0.4) = %v, want mean of windows 0,1 = %v", got, want)
	}
}

func TestScoreNaNOnNonFinite(t *testing.T) {
	n := 40
	sigV := make([]float64, n)
	bgV := make([]float64, n)
	for i := range sigV {
		sigV[i] = float64(i) / float64(n)
		bgV[i] = float64(i) / float64(n)
	}
	sig := mustTable(t, map[string][]float64{"v": sigV})
	bg := mustTable(t, map[string][]float64{"v": bgV})

	learner, err := NewLearner(Config{
		Tree:        tree.Config{FeatureNames: []string{"v"}, MinSplit: 1},
		VineFeature: "v",
		Min:         0,
		Max:         1,
		Width:       0.5,
		Step:        0.5,
	}, rng.New(3), nil)
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if got := model.Score([]float64{math.NaN()}, false); !math.IsNaN(got) {
		t.Errorf("Score(NaN) = %v, want NaN", got)
	}
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func TestScoreDatasetMatchesPerEventScoring(t *testing.T) {
	n := 60
	sigV := make([]float64, n)
	sigX := make([]float64, n)
	bgV := make([]float64, n)
	bgX := make([]float64, n)
	for i := range sigV {
		sigV[i] = float64(i) / float64(n)
		sigX[i] = 1
		bgV[i] = float64(i) / float64(n)
		bgX[i] = -1
	}
	sig := mustTable(t, map[string][]float64{"v": sigV, "x": sigX})
	bg := mustTable(t, map[string][]float64{"v": bgV, "x": bgX})

	var log recordingLogger
	learner, err := NewLearner(Config{
		Tree:        tree.Config{FeatureNames: []string{"v", "x"}, MaxDepth: 1, MinSplit: 1, NumCuts: 5},
		VineFeature: "v",
		Min:         0,
		Max:         1,
		Width:       0.5,
		Step:        0.25,
	}, rng.New(2), &log)
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(log.lines) != len(learner.Windows()) {
		t.Errorf("got %d progress lines, want one per window (%d)", len(log.lines), len(learner.Windows()))
	}

	scores, err := model.ScoreDataset(sig, false, nil)
	if err != nil {
		t.Fatalf("ScoreDataset: %v", err)
	}
	if len(scores) != sig.Len() {
		t.Fatalf("got %d scores, want %d", len(scores), sig.Len())
	}
	for i := range sigV {
		row := []float64{sigV[i], sigX[i]}
		if want := model.Score(row, false); want != scores[i] {
			t.Errorf("scores[%d] = %v, want %v", i, scores[i], want)
		}
	}
}

func TestUnknownVineFeatureRejected(t *testing.T) {
	if _, err := NewLearner(Config{
		Tree:        tree.Config{FeatureNames: []string{"x"}},
		VineFeature: "v",
		Min:         0,
		Max:         1,
		Width:       0.5,
		Step:        0.5,
	}, rng.New(1), nil); err != nil {
		t.Fatalf("NewLearner should not validate feature membership: %v", err)
	}

	sig := mustTable(t, map[string][]float64{"x": {1, 2}})
	bg := mustTable(t, map[string][]float64{"x": {-1, -2}})
	learner, err := NewLearner(Config{
		Tree:        tree.Config{FeatureNames: []string{"x"}},
		VineFeature: "v",
		Min:         0,
		Max:         1,
		Width:       0.5,
		Step:        0.5,
	}, rng.New(1), nil)
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	if _, err := learner.Train(sig, bg); err == nil {
		t.Fatal("want error training with a vine_feature absent from the feature set")
	}
}
