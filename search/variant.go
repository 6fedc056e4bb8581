// Package search runs hyperparameter grids as lists of independent tasks.
//
// A Task pairs a model Variant with the function that fits and scores it.
// Runners execute tasks sequentially or on a worker pool; each task gets a
// seed derived from the base seed and its variant key, and writes its Result
// into its own slot, so every runner produces identical tables.
package search

import (
	"fmt"
	"strconv"

	"github.com/YuminosukeSato/hedonic/preprocessing"
)

// Family is a model family.
type Family string

const (
	OLS          Family = "OLS"
	ElasticNet   Family = "ElasticNet"
	RandomForest Family = "RandomForest"
)

// Hyperparameters is the number of tuned hyperparameters of the family.
func (f Family) Hyperparameters() int {
	switch f {
	case OLS:
		return 0
	case ElasticNet:
		return 1
	case RandomForest:
		return 2
	default:
		return 3
	}
}

// Variant is one (family, hyperparameters, target transform) configuration.
type Variant struct {
	Family    Family                  `json:"family"`
	Transform preprocessing.Transform `json:"transform"`
	Alpha     float64                 `json:"alpha,omitempty"`
	Trees     int                     `json:"trees,omitempty"`
	MinLeaf   int                     `json:"min_leaf,omitempty"`
}

// Key identifies the variant, e.g. "RandomForest/log/trees=500/min_leaf=5".
func (v Variant) Key() string {
	switch v.Family {
	case ElasticNet:
		return fmt.Sprintf("%s/%s/alpha=%s", v.Family, v.Transform, strconv.FormatFloat(v.Alpha, 'f', -1, 64))
	case RandomForest:
		return fmt.Sprintf("%s/%s/trees=%d/min_leaf=%d", v.Family, v.Transform, v.Trees, v.MinLeaf)
	default:
		return fmt.Sprintf("%s/%s", v.Family, v.Transform)
	}
}

func (v Variant) String() string { return v.Key() }
