package tree

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

func stepData(n int) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(3, 3))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i) / float64(n)
		X.Set(i, 0, x0)
		X.Set(i, 1, rng.Float64())
		if x0 < 0.5 {
			y.SetVec(i, 100)
		} else {
			y.SetVec(i, 300)
		}
	}
	return X, y
}

func checkMinLeaf(t *testing.T, node *TreeNode, minLeaf int) {
	t.Helper()
	if node.IsLeaf {
		assert.GreaterOrEqual(t, node.NSamples, minLeaf)
		return
	}
	assert.Equal(t, node.NSamples, node.Left.NSamples+node.Right.NSamples)
	checkMinLeaf(t, node.Left, minLeaf)
	checkMinLeaf(t, node.Right, minLeaf)
}

func TestRegressorLearnsStep(t *testing.T) {
	X, y := stepData(40)
	tr := NewRegressor(WithMinSamplesLeaf(5), WithRandomState(1))
	require.NoError(t, tr.Fit(X, y))

	root := tr.Root()
	require.False(t, root.IsLeaf)
	assert.Equal(t, 0, root.Feature)
	assert.InDelta(t, 0.4875, root.Threshold, 1e-12)
	assert.Equal(t, 2, tr.GetNLeaves())
	assert.Equal(t, 1, tr.GetDepth())

	pred, err := tr.Predict(mat.NewDense(2, 2, []float64{0.1, 0.9, 0.9, 0.1}))
	require.NoError(t, err)
	assert.Equal(t, 100.0, pred.AtVec(0))
	assert.Equal(t, 300.0, pred.AtVec(1))
}

func TestRegressorRespectsMinLeaf(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	X := mat.NewDense(200, 3, nil)
	y := mat.NewVecDense(200, nil)
	for i := 0; i < 200; i++ {
		for j := 0; j < 3; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
		y.SetVec(i, X.At(i, 0)*X.At(i, 1)+rng.NormFloat64())
	}

	for _, minLeaf := range []int{1, 5, 20, 50} {
		tr := NewRegressor(WithMinSamplesLeaf(minLeaf), WithMaxFeatures(2), WithRandomState(4))
		require.NoError(t, tr.Fit(X, y))
		checkMinLeaf(t, tr.Root(), minLeaf)
	}

	huge := NewRegressor(WithMinSamplesLeaf(150))
	require.NoError(t, huge.Fit(X, y))
	assert.True(t, huge.Root().IsLeaf, "no admissible split leaves a single leaf")
}

func TestRegressorMaxDepthAndDeterminism(t *testing.T) {
	X, y := stepData(64)
	a := NewRegressor(WithMaxDepth(1), WithMaxFeatures(1), WithRandomState(11))
	b := NewRegressor(WithMaxDepth(1), WithMaxFeatures(1), WithRandomState(11))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	assert.LessOrEqual(t, a.GetDepth(), 1)
	assert.Equal(t, a.Root().Feature, b.Root().Feature)
	assert.Equal(t, a.Root().Threshold, b.Root().Threshold)
}

func TestRegressorErrors(t *testing.T) {
	tr := NewRegressor()
	_, err := tr.Predict(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = tr.Fit(mat.NewDense(3, 1, nil), mat.NewVecDense(2, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	err = NewRegressor(WithMinSamplesLeaf(0)).Fit(mat.NewDense(3, 1, nil), mat.NewVecDense(3, nil))
	var inv *errors.InvalidArgumentError
	assert.True(t, errors.As(err, &inv))
}
