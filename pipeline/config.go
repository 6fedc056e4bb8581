package pipeline

import (
	"bytes"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/hedonic/dataset"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/pkg/log"
	"github.com/YuminosukeSato/hedonic/preprocessing"
	"github.com/YuminosukeSato/hedonic/search"
)

// Config is the run configuration, usually loaded from YAML.
type Config struct {
	Seed          uint64  `yaml:"seed"`
	TrainFraction float64 `yaml:"train_fraction"`
	Folds         int     `yaml:"cv_folds"`

	// AlphaStep spaces the elastic-net mixing grid over [0, 1]. Alphas, when
	// set, replaces the generated grid.
	AlphaStep float64   `yaml:"alpha_step"`
	Alphas    []float64 `yaml:"alphas"`

	Trees          []int   `yaml:"trees"`
	MinLeaf        []int   `yaml:"min_leaf"`
	SampleFraction float64 `yaml:"sample_fraction"`
	// ForestJobs is the number of goroutines growing the trees of one forest.
	ForestJobs int `yaml:"forest_jobs"`

	// Workers is the number of grid cells evaluated at once; 0 uses every CPU.
	Workers int `yaml:"workers"`

	Families   []search.Family           `yaml:"families"`
	Transforms []preprocessing.Transform `yaml:"transforms"`

	// RankTol overrides the rank tolerance; 0 uses max(n,p)·eps·σmax.
	RankTol float64 `yaml:"rank_tol"`

	Schema   dataset.SchemaSpec `yaml:"schema"`
	LogLevel string             `yaml:"log_level"`
}

// DefaultConfig returns the reference configuration: seed 42, a 65% training
// split, 10 folds, α every 0.05, forests of {500, 1000, 2000} trees with
// minimum leaf sizes {5, 10, 20, 50} on half-size subsamples.
func DefaultConfig() Config {
	return Config{
		Seed:           42,
		TrainFraction:  0.65,
		Folds:          10,
		AlphaStep:      0.05,
		Trees:          []int{500, 1000, 2000},
		MinLeaf:        []int{5, 10, 20, 50},
		SampleFraction: 0.5,
		ForestJobs:     1,
		Families:       []search.Family{search.OLS, search.ElasticNet, search.RandomForest},
		Transforms:     []preprocessing.Transform{preprocessing.Raw, preprocessing.Log},
		Schema:         dataset.SchemaSpec{Identifier: "id", Target: "price"},
		LogLevel:       "info",
	}
}

// ParseConfig decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.Wrap(err, "decode config")
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	return ParseConfig(data)
}

// Validate rejects configurations that cannot produce a comparison.
func (c Config) Validate() error {
	const op = "pipeline.Config.Validate"
	invalid := func(param, reason string, value interface{}) error {
		return errors.NewInvalidArgumentError(op, param, reason, value)
	}

	if !(c.TrainFraction > 0 && c.TrainFraction < 1) {
		return invalid("train_fraction", "must be in (0, 1)", c.TrainFraction)
	}
	if c.Folds < 2 {
		return invalid("cv_folds", "need at least 2 folds", c.Folds)
	}
	if c.Workers < 0 {
		return invalid("workers", "must not be negative", c.Workers)
	}
	if c.ForestJobs < 0 {
		return invalid("forest_jobs", "must not be negative", c.ForestJobs)
	}
	if c.RankTol < 0 {
		return invalid("rank_tol", "must not be negative", c.RankTol)
	}
	if len(c.Families) == 0 {
		return invalid("families", "no model family selected", c.Families)
	}
	for _, f := range c.Families {
		switch f {
		case search.OLS:
		case search.ElasticNet:
			if err := c.validateAlphas(); err != nil {
				return err
			}
		case search.RandomForest:
			if err := c.validateForest(); err != nil {
				return err
			}
		default:
			return invalid("families", "unknown model family", f)
		}
	}
	if len(c.Transforms) == 0 {
		return invalid("transforms", "no target transform selected", c.Transforms)
	}
	for _, t := range c.Transforms {
		if t != preprocessing.Raw && t != preprocessing.Log {
			return invalid("transforms", "unknown target transform", t)
		}
	}
	if c.Schema.Target == "" {
		return invalid("schema.target", "target column name is required", c.Schema.Target)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c Config) validateAlphas() error {
	const op = "pipeline.Config.Validate"
	if len(c.Alphas) == 0 {
		if !(c.AlphaStep > 0 && c.AlphaStep <= 1) {
			return errors.NewInvalidArgumentError(op, "alpha_step", "must be in (0, 1]", c.AlphaStep)
		}
		return nil
	}
	for _, a := range c.Alphas {
		if !(a >= 0 && a <= 1) {
			return errors.NewInvalidArgumentError(op, "alphas", "mixing parameter must be in [0, 1]", a)
		}
	}
	return nil
}

func (c Config) validateForest() error {
	const op = "pipeline.Config.Validate"
	if len(c.Trees) == 0 {
		return errors.NewInvalidArgumentError(op, "trees", "tree-count grid is empty", c.Trees)
	}
	if len(c.MinLeaf) == 0 {
		return errors.NewInvalidArgumentError(op, "min_leaf", "leaf-size grid is empty", c.MinLeaf)
	}
	for _, t := range c.Trees {
		if t < 1 {
			return errors.NewInvalidArgumentError(op, "trees", "tree count must be positive", t)
		}
	}
	for _, l := range c.MinLeaf {
		if l < 1 {
			return errors.NewInvalidArgumentError(op, "min_leaf", "leaf size must be positive", l)
		}
	}
	if !(c.SampleFraction > 0 && c.SampleFraction <= 1) {
		return errors.NewInvalidArgumentError(op, "sample_fraction", "must be in (0, 1]", c.SampleFraction)
	}
	return nil
}

// AlphaGrid returns the elastic-net mixing values: Alphas if set, otherwise
// the multiples of AlphaStep from 0 up to 1.
func (c Config) AlphaGrid() []float64 {
	if len(c.Alphas) > 0 {
		return append([]float64(nil), c.Alphas...)
	}
	n := int(math.Floor(1/c.AlphaStep + 1e-9))
	grid := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		a := math.Round(float64(i)*c.AlphaStep*1e10) / 1e10
		grid = append(grid, math.Min(a, 1))
	}
	return grid
}

func (c Config) hasFamily(f search.Family) bool {
	for _, g := range c.Families {
		if g == f {
			return true
		}
	}
	return false
}
