package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/metrics"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/split"
)

// CVResult stores per-fold cross-validation scores.
type CVResult struct {
	TestMSE []float64
	// TestR2 is NaN for a fold whose test target has no variance.
	TestR2 []float64
}

// MeanMSE returns the mean test MSE over folds.
func (cv *CVResult) MeanMSE() float64 { return stat.Mean(cv.TestMSE, nil) }

// StdMSE returns the sample standard deviation of the fold MSEs.
func (cv *CVResult) StdMSE() float64 {
	if len(cv.TestMSE) <= 1 {
		return 0
	}
	return stat.StdDev(cv.TestMSE, nil)
}

// MeanR2 returns the mean fold R², ignoring NaN folds.
func (cv *CVResult) MeanR2() float64 {
	var sum float64
	var n int
	for _, r := range cv.TestR2 {
		if !math.IsNaN(r) {
			sum += r
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// CrossValidate refits a fresh regressor on every fold and scores it on the
// held-out fold. It only reports stability; nothing is selected from it.
func CrossValidate(newModel func() model.Regressor, X mat.Matrix, y mat.Vector, kf *split.KFold) (*CVResult, error) {
	n, _ := X.Dims()
	if y.Len() != n {
		return nil, errors.NewInvalidArgumentError("linear.CrossValidate", "y", "length does not match feature rows", y.Len())
	}
	folds, err := kf.Split(n)
	if err != nil {
		return nil, err
	}

	result := &CVResult{
		TestMSE: make([]float64, len(folds)),
		TestR2:  make([]float64, len(folds)),
	}
	for i, fold := range folds {
		Xtr, ytr, err := split.Subset(X, y, fold.TrainIndices)
		if err != nil {
			return nil, err
		}
		Xte, yte, err := split.Subset(X, y, fold.TestIndices)
		if err != nil {
			return nil, err
		}

		m := newModel()
		if err := m.Fit(Xtr, ytr); err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}
		pred, err := m.Predict(Xte)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}
		if result.TestMSE[i], err = metrics.MSE(yte, pred); err != nil {
			return nil, err
		}
		if result.TestR2[i], err = metrics.R2Score(yte, pred); err != nil {
			result.TestR2[i] = math.NaN()
		}
	}
	return result, nil
}
