package tree

import (
	"fmt"
	"math"
	"testing"

	"github.com/evtboost/bdt/pkg/impurity"
	"github.com/evtboost/bdt/pkg/rng"
)

func TestImportanceSumsToOne(t *testing.T) {
	sigX := make([]float64, 200)
	sigY := make([]float64, 200)
	bgX := make([]float64, 200)
	bgY := make([]float64, 200)
	for i := range sigX {
		sigX[i] = 1 + float64(i%3)*0.01
		sigY[i] = float64(i % 5)
		bgX[i] = -1 - float64(i%3)*0.01
		bgY[i] = float64(i % 5)
	}
	sig := mustTable(t, map[string][]float64{"x": sigX, "y": sigY})
	bg := mustTable(t, map[string][]float64{"x": bgX, "y": bgY})

	learner, err := NewLearner(Config{
		FeatureNames: []string{"x", "y"},
		MaxDepth:     4,
		MinSplit:     2,
		NumCuts:      10,
		Separation:   impurity.Gini,
	}, rng.New(7))
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	for _, mode := range []ImportanceMode{ImportanceCount, ImportanceSeparation} {
		contrib := model.TreeImportance(mode)
		norm := model.NormalizedImportance(contrib)
		var total float64
		for _, v := range norm {
			total += v
		}
		if model.Root.IsLeaf() {
			if total != 0 {
				t.Errorf("mode %v: single-leaf tree importance sums to %v, want 0", mode, total)
			}
			continue
		}
		if math.Abs(total-1) > 1e-9 {
			t.Errorf("mode %v: importance sums to %v, want 1", mode, total)
		}
	}
}

func TestScoreEventBoundedAndNaNOnNonFinite(t *testing.T) {
	sigX := []float64{1, 1, 1, 1}
	bgX := []float64{-1, -1, -1, -1}
	sig := mustTable(t, map[string][]float64{"x": sigX})
	bg := mustTable(t, map[string][]float64{"x": bgX})

	learner, err := NewLearner(Config{FeatureNames: []string{"x"}, MinSplit: 1, MaxDepth: 1}, rng.New(1))
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	for _, usePurity := range []bool{false, true} {
		got := model.ScoreEvent([]float64{1}, usePurity)
		if got < -1 || got > 1 {
			t.Errorf("usePurity=%v: score %v out of [-1,1]", usePurity, got)
		}
		if got := model.ScoreEvent([]float64{math.NaN()}, usePurity); !math.IsNaN(got) {
			t.Errorf("usePurity=%v: score(NaN) = %v, want NaN", usePurity, got)
		}
	}
}

type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func TestScoreDatasetMatchesPerEventScoring(t *testing.T) {
	sigX := []float64{1, 1, 1, 1}
	bgX := []float64{-1, -1, -1, -1}
	sig := mustTable(t, map[string][]float64{"x": sigX})
	bg := mustTable(t, map[string][]float64{"x": bgX})

	learner, err := NewLearner(Config{FeatureNames: []string{"x"}, MinSplit: 1, MaxDepth: 1}, rng.New(1))
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	var log recordingLogger
	scores, err := model.ScoreDataset(sig, false, &log)
	if err != nil {
		t.Fatalf("ScoreDataset: %v", err)
	}
	if len(scores) != sig.Len() {
		t.Fatalf("got %d scores, want %d", len(scores), sig.Len())
	}
	for i, want := range sigX {
		row := []float64{want}
		if got := model.ScoreEvent(row, false); got != scores[i] {
			t.Errorf("scores[%d] = %v, want %v", i, scores[i], got)
		}
	}
	if len(log.lines) == 0 {
		t.Error("want a final completion line from a non-nil logger, got none")
	}

	if scores, err := model.ScoreDataset(sig, false, nil); err != nil || len(scores) != sig.Len() {
		t.Errorf("ScoreDataset with nil logger: scores=%v err=%v", scores, err)
	}
}

func TestNodeAggregatesMatchDescendants(t *testing.T) {
	sigX := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	bgX := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	sig := mustTable(t, map[string][]float64{"x": sigX})
	bg := mustTable(t, map[string][]float64{"x": bgX})

	learner, err := NewLearner(Config{FeatureNames: []string{"x"}, MinSplit: 1, MaxDepth: 3, NumCuts: 5}, rng.New(2))
	if err != nil {
		t.Fatalf("NewLearner: %v", err)
	}
	model, err := learner.Train(sig, bg)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	var check func(n *Node)
	check = func(n *Node) {
		if n.IsLeaf() {
			return
		}
		sumNSig := n.Left.NSig + n.Right.NSig
		sumNBg := n.Left.NBg + n.Right.NBg
		if sumNSig != n.NSig || sumNBg != n.NBg {
			t.Errorf("counts mismatch: node (%d,%d) children sum (%d,%d)", n.NSig, n.NBg, sumNSig, sumNBg)
		}
		check(n.Left)
		check(n.Right)
	}
	check(model.Root)
}
