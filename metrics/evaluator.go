package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// minRelativeSST is the smallest SST, relative to n·max(1, mean²), that a
// hold-out target may have.
const minRelativeSST = 1e-12

// HoldoutEvaluator scores predictions against one fixed hold-out target.
// SST is computed once at construction and shared by every model scored
// with the same evaluator. It is read-only and safe for concurrent use.
type HoldoutEvaluator struct {
	y    *mat.VecDense
	sst  float64
	mean float64
}

// NewHoldoutEvaluator caches the hold-out target and its SST. A hold-out set
// with fewer than 2 rows or near-zero variance is rejected with
// InvalidArgumentError, since R² would be undefined.
func NewHoldoutEvaluator(y mat.Vector) (*HoldoutEvaluator, error) {
	const op = "metrics.NewHoldoutEvaluator"

	n := y.Len()
	if n < 2 {
		return nil, errors.NewInvalidArgumentError(op, "holdout", "need at least 2 hold-out rows", n)
	}
	sst, mean := SST(y)
	if math.IsNaN(sst) || math.IsInf(sst, 0) {
		return nil, errors.NewInvalidArgumentError(op, "holdout", "target contains non-finite values", sst)
	}
	if sst <= minRelativeSST*float64(n)*math.Max(1, mean*mean) {
		return nil, errors.NewInvalidArgumentError(op, "holdout", "hold-out target has near-zero variance", sst)
	}
	return &HoldoutEvaluator{y: mat.VecDenseCopyOf(y), sst: sst, mean: mean}, nil
}

// Score returns the hold-out R² of pred. The value is never clamped, and
// it is NaN whenever an error is returned.
func (e *HoldoutEvaluator) Score(pred mat.Vector) (float64, error) {
	if err := errors.CheckVector("metrics.HoldoutEvaluator.Score", pred); err != nil {
		return math.NaN(), err
	}
	ssr, err := SSR(e.y, pred)
	if err != nil {
		return math.NaN(), err
	}
	return 1 - ssr/e.sst, nil
}

// MSE returns the hold-out mean squared error of pred.
func (e *HoldoutEvaluator) MSE(pred mat.Vector) (float64, error) {
	return MSE(e.y, pred)
}

// SST returns the cached total sum of squares.
func (e *HoldoutEvaluator) SST() float64 { return e.sst }

// Mean returns the hold-out target mean.
func (e *HoldoutEvaluator) Mean() float64 { return e.mean }

// Len returns the number of hold-out rows.
func (e *HoldoutEvaluator) Len() int { return e.y.Len() }
