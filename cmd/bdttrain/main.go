// Command bdttrain demonstrates wiring the learner, boosting, config, and
// modelstore packages end to end: it builds a small synthetic
// signal/background dataset, trains a BDTModel per a YAML hyperparameter
// file, persists it to SQLite, reloads it, and reports ensemble diagnostics.
//
// Dataset I/O is deliberately out of scope for the core library (§1); this
// command's synthetic generator stands in for whatever scripted front-end a
// host application would otherwise supply.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/evtboost/bdt/pkg/boost"
	"github.com/evtboost/bdt/pkg/config"
	"github.com/evtboost/bdt/pkg/event"
	"github.com/evtboost/bdt/pkg/modelstore"
	"github.com/evtboost/bdt/pkg/rng"
	"github.com/evtboost/bdt/pkg/tree"
)

func main() {
	configPath := flag.String("config", "configs/bdttrain.yaml", "path to the hyperparameter YAML file")
	dbPath := flag.String("db", "bdt.db", "path to the SQLite model store")
	seed := flag.Int64("seed", 1, "RNG seed for both the synthetic dataset and training")
	nEvents := flag.Int("events", 500, "number of signal and background events each")
	flag.Parse()

	logger := log.New(os.Stdout, "bdttrain: ", log.LstdFlags)

	hp, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	sig, bg := syntheticDataset(*nEvents, *seed)

	boostCfg, err := hp.BoostConfig()
	if err != nil {
		logger.Fatalf("resolve boost config: %v", err)
	}

	learner, err := boost.NewLearner(boostCfg, rng.New(*seed), logger)
	if err != nil {
		logger.Fatalf("new learner: %v", err)
	}

	model, err := learner.Train(sig, bg)
	if err != nil {
		logger.Fatalf("train: %v", err)
	}
	logger.Printf("trained ensemble with %d trees, id=%s", len(model.Trees), model.ID)

	importance := model.Importance(tree.ImportanceSeparation, true)
	for _, name := range model.FeatureNames {
		logger.Printf("importance[%s] = %.4f", name, importance[name])
	}

	store, err := modelstore.Open(*dbPath)
	if err != nil {
		logger.Fatalf("open model store: %v", err)
	}
	defer store.Close()

	if err := store.SaveBoostModel(model); err != nil {
		logger.Fatalf("save model: %v", err)
	}

	reloaded, err := store.LoadBoostModel(model.ID)
	if err != nil {
		logger.Fatalf("reload model: %v", err)
	}

	probe := []float64{1, 0.5}
	logger.Printf("score(x=1, y=0.5) before save = %.6f, after reload = %.6f",
		model.Score(probe, false), reloaded.Score(probe, false))

	scores, err := reloaded.ScoreDataset(sig, false, logger)
	if err != nil {
		logger.Fatalf("score dataset: %v", err)
	}
	logger.Printf("scored %d signal events against the reloaded model", len(scores))
}

// syntheticDataset builds a two-feature signal/background sample: x
// separates the classes, y is an auxiliary uniform feature (usable as a
// vine feature) with no separating power.
func syntheticDataset(n int, seed int64) (*event.Table, *event.Table) {
	r := rand.New(rand.NewSource(seed))

	sigX := make([]float64, n)
	sigY := make([]float64, n)
	bgX := make([]float64, n)
	bgY := make([]float64, n)
	for i := 0; i < n; i++ {
		sigX[i] = 1 + r.NormFloat64()*0.3
		sigY[i] = r.Float64()
		bgX[i] = -1 + r.NormFloat64()*0.3
		bgY[i] = r.Float64()
	}

	sig, err := event.NewTable(map[string][]float64{"x": sigX, "y": sigY}, nil, nil)
	if err != nil {
		log.Fatalf("build signal table: %v", err)
	}
	bg, err := event.NewTable(map[string][]float64{"x": bgX, "y": bgY}, nil, nil)
	if err != nil {
		log.Fatalf("build background table: %v", err)
	}
	return sig, bg
}
