// Package config loads the learner/boost/vine hyperparameters (§4.2, §4.4,
// §4.6) from a YAML file, following the yaml-tagged struct pattern of
// Mimir_Go/utils.Config, with environment-variable overrides following
// pkg/config.LoadConfig's getEnv/getEnvAsInt pattern.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/evtboost/bdt/pkg/boost"
	"github.com/evtboost/bdt/pkg/impurity"
	"github.com/evtboost/bdt/pkg/tree"
	"github.com/evtboost/bdt/pkg/vine"
	"gopkg.in/yaml.v3"
)

// HyperParams is the top-level on-disk configuration document.
type HyperParams struct {
	Learner LearnerParams `yaml:"learner"`
	Boost   BoostParams   `yaml:"boost"`
	Vine    VineParams    `yaml:"vine"`
}

// LearnerParams mirrors tree.Config's on-disk shape.
type LearnerParams struct {
	FeatureNames       []string `yaml:"feature_names"`
	SigWeightName      string   `yaml:"sig_weight_name"`
	BgWeightName       string   `yaml:"bg_weight_name"`
	MaxDepth           int      `yaml:"max_depth"`
	MinSplit           int      `yaml:"min_split"`
	NumCuts            int      `yaml:"num_cuts"`
	LinearCuts         bool     `yaml:"linear_cuts"`
	NumRandomVariables int      `yaml:"num_random_variables"`
	SeparationType     string   `yaml:"separation_type"` // "gini" | "cross_entropy" | "misclass_error"
}

// BoostParams mirrors boost.Config's on-disk shape.
type BoostParams struct {
	Beta             float64 `yaml:"beta"`
	FracRandomEvents float64 `yaml:"frac_random_events"`
	NumTrees         int     `yaml:"num_trees"`
	Quiet            bool    `yaml:"quiet"`
}

// VineParams mirrors vine.Config's on-disk shape.
type VineParams struct {
	VineFeature string  `yaml:"vine_feature"`
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	Width       float64 `yaml:"width"`
	Step        float64 `yaml:"step"`
}

// Load reads and parses a YAML hyperparameter file at path, then applies any
// BDT_* environment variable overrides.
func Load(path string) (*HyperParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var hp HyperParams
	if err := yaml.Unmarshal(data, &hp); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	hp.applyEnvOverrides()
	return &hp, nil
}

// applyEnvOverrides lets deployment environments override a handful of the
// most commonly tuned knobs without editing the YAML file.
func (hp *HyperParams) applyEnvOverrides() {
	hp.Learner.MaxDepth = getEnvAsInt("BDT_MAX_DEPTH", hp.Learner.MaxDepth)
	hp.Learner.MinSplit = getEnvAsInt("BDT_MIN_SPLIT", hp.Learner.MinSplit)
	hp.Learner.SeparationType = getEnv("BDT_SEPARATION_TYPE", hp.Learner.SeparationType)
	hp.Boost.NumTrees = getEnvAsInt("BDT_NUM_TREES", hp.Boost.NumTrees)
	hp.Boost.Beta = getEnvAsFloat("BDT_BETA", hp.Boost.Beta)
}

// TreeConfig converts LearnerParams into a tree.Config.
func (p LearnerParams) TreeConfig() (tree.Config, error) {
	sep := impurity.Separation(p.SeparationType)
	if _, err := impurity.Of(sep); err != nil {
		return tree.Config{}, fmt.Errorf("config: learner.separation_type: %w", err)
	}
	return tree.Config{
		FeatureNames:       append([]string(nil), p.FeatureNames...),
		SigWeightName:      p.SigWeightName,
		BgWeightName:       p.BgWeightName,
		MaxDepth:           p.MaxDepth,
		MinSplit:           p.MinSplit,
		NumCuts:            p.NumCuts,
		LinearCuts:         p.LinearCuts,
		NumRandomVariables: p.NumRandomVariables,
		Separation:         sep,
	}, nil
}

// BoostConfig converts HyperParams into a boost.Config, embedding the
// converted tree.Config as the inner DTLearner's configuration.
func (hp HyperParams) BoostConfig() (boost.Config, error) {
	tc, err := hp.Learner.TreeConfig()
	if err != nil {
		return boost.Config{}, err
	}
	return boost.Config{
		Tree:             tc,
		Beta:             hp.Boost.Beta,
		FracRandomEvents: hp.Boost.FracRandomEvents,
		NumTrees:         hp.Boost.NumTrees,
		Quiet:            hp.Boost.Quiet,
	}, nil
}

// VineConfig converts HyperParams into a vine.Config, embedding the
// converted tree.Config as the inner per-window learner's configuration.
func (hp HyperParams) VineConfig() (vine.Config, error) {
	tc, err := hp.Learner.TreeConfig()
	if err != nil {
		return vine.Config{}, err
	}
	return vine.Config{
		Tree:        tc,
		VineFeature: hp.Vine.VineFeature,
		Min:         hp.Vine.Min,
		Max:         hp.Vine.Max,
		Width:       hp.Vine.Width,
		Step:        hp.Vine.Step,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
