package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/split"
)

func TestLinearRegressionBasic(t *testing.T) {
	// y = 2x + 1
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewVecDense(4, []float64{3, 5, 7, 9})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDelta(t, 2.0, lr.Coef()[0], 1e-10)
	assert.InDelta(t, 1.0, lr.Intercept(), 1e-10)
	assert.Equal(t, 2, lr.Rank)

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	require.NoError(t, err)
	assert.InDelta(t, 11, pred.AtVec(0), 1e-10)
	assert.InDelta(t, 13, pred.AtVec(1), 1e-10)
}

func TestLinearRegressionRecoversWeights(t *testing.T) {
	X, y := createBenchmarkData(300, 4)
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	for j, w := range lr.Coef() {
		assert.InDelta(t, float64(j+1)*0.5, w, 0.02)
	}
	assert.InDelta(t, 1.0, lr.Intercept(), 0.02)
}

func TestLinearRegressionRejectsRankDeficientInput(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		1, 2,
		2, 4,
		3, 6,
		4, 8,
		5, 10,
	})
	y := mat.NewVecDense(5, []float64{1, 2, 3, 4, 5})

	err := NewLinearRegression().Fit(X, y)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))

	err = NewLinearRegression().Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), mat.NewVecDense(2, nil))
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))
}

func TestLinearRegressionInputErrors(t *testing.T) {
	lr := NewLinearRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(2, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	X, y := createBenchmarkData(20, 2)
	require.NoError(t, lr.Fit(X, y))
	_, err = lr.Predict(mat.NewDense(1, 3, nil))
	assert.True(t, errors.As(err, &dim))
}

func TestCrossValidateOLS(t *testing.T) {
	X, y := createBenchmarkData(65, 5)
	cv, err := CrossValidate(func() model.Regressor { return NewLinearRegression() }, X, y, split.NewKFold(10, true, 42))
	require.NoError(t, err)

	assert.Len(t, cv.TestMSE, 10)
	assert.Less(t, cv.MeanMSE(), 0.01)
	assert.GreaterOrEqual(t, cv.StdMSE(), 0.0)
	assert.Greater(t, cv.MeanR2(), 0.95)

	again, err := CrossValidate(func() model.Regressor { return NewLinearRegression() }, X, y, split.NewKFold(10, true, 42))
	require.NoError(t, err)
	assert.Equal(t, cv.TestMSE, again.TestMSE)
}
