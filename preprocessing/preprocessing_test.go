package preprocessing

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/dataset"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/pkg/log"
)

func randomMatrix(n, p int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
	}
	return X
}

// withDependencies appends a duplicate of column 0 and the sum of columns 1
// and 2, giving a nullity of two.
func withDependencies(X *mat.Dense) *mat.Dense {
	n, p := X.Dims()
	out := mat.NewDense(n, p+2, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			out.Set(i, j, X.At(i, j))
		}
		out.Set(i, p, X.At(i, 0))
		out.Set(i, p+1, X.At(i, 1)+X.At(i, 2))
	}
	return out
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	s := NewStandardScalerDefault()
	Xs, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1], "constant column keeps unit scale")
	assert.InDelta(t, 0, Xs.At(0, 1), 1e-12)

	back, err := s.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))

	_, err = s.Transform(mat.NewDense(1, 3, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	_, err = NewStandardScalerDefault().Transform(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestRankAnalysis(t *testing.T) {
	X := withDependencies(randomMatrix(30, 4, 1))
	r, err := RankAnalysis(X, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Rank)
	assert.Equal(t, 2, r.Nullity(6))
	assert.Greater(t, r.Tol, 0.0)

	_, err = RankAnalysis(&mat.Dense{}, 0)
	assert.Error(t, err)
}

func TestDependentColumnsDropsNullity(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42} {
		X := withDependencies(randomMatrix(40, 5, seed))
		_, p := X.Dims()
		full, err := RankAnalysis(X, 0)
		require.NoError(t, err)

		kept, dropped, err := DependentColumns(X, 0)
		require.NoError(t, err)
		assert.Len(t, dropped, full.Nullity(p))
		assert.Equal(t, []int{5, 6}, dropped)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, kept)

		reduced := selectColumns(X, 40, kept)
		assert.True(t, IsFullRank(reduced))
	}
}

func TestDependentColumnsFullRankUntouched(t *testing.T) {
	X := randomMatrix(20, 3, 3)
	kept, dropped, err := DependentColumns(X, 0)
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.Len(t, kept, 3)
}

// withDummies appends a 0/1 indicator d1, its complement d2 = 1 - d1 and a
// constant column.
func withDummies(X *mat.Dense) *mat.Dense {
	n, p := X.Dims()
	out := mat.NewDense(n, p+3, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			out.Set(i, j, X.At(i, j))
		}
		d1 := 0.0
		if X.At(i, 0) > 0 {
			d1 = 1
		}
		out.Set(i, p, d1)
		out.Set(i, p+1, 1-d1)
		out.Set(i, p+2, 3)
	}
	return out
}

func TestDependentColumnsWithInterceptDropsAliasedColumns(t *testing.T) {
	X := withDummies(randomMatrix(50, 2, 9))

	// Without the constant column only flat = 3(d1 + d2) is found and the
	// aliased d2 survives.
	_, dropped, err := DependentColumns(X, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, dropped)

	kept, dropped, err := DependentColumnsWithIntercept(X, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, kept)
	assert.Equal(t, []int{3, 4}, dropped)

	design := mat.NewDense(50, len(kept)+1, nil)
	for i := 0; i < 50; i++ {
		design.Set(i, 0, 1)
		for k, j := range kept {
			design.Set(i, k+1, X.At(i, j))
		}
	}
	assert.True(t, IsFullRank(design))

	_, _, err = DependentColumnsWithIntercept(&mat.Dense{}, 0)
	assert.Error(t, err)
}

func TestColumnDropperRejectsOnlyConstantColumns(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 0,
		1, 0,
		1, 0,
	})
	d := NewColumnDropper([]string{"flat", "zero"})
	d.Intercept = true
	err := d.Fit(X)
	var inv *errors.InvalidArgumentError
	assert.True(t, errors.As(err, &inv))
}

func TestColumnDropperNames(t *testing.T) {
	X := withDependencies(randomMatrix(25, 3, 5))
	d := NewColumnDropper([]string{"a", "b", "c", "a_copy", "b_plus_c"})
	out, err := d.FitTransform(X)
	require.NoError(t, err)

	_, p := out.Dims()
	assert.Equal(t, 3, p)
	assert.Equal(t, []string{"a", "b", "c"}, d.KeptNames())
	assert.Equal(t, []string{"a_copy", "b_plus_c"}, d.DroppedNames())

	err = NewColumnDropper([]string{"a"}).Fit(X)
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestLogExpRoundTrip(t *testing.T) {
	prices := mat.NewVecDense(5, []float64{1, 125000, 349999.99, 2.5e6, 0.5})
	logged, err := LogTarget(prices)
	require.NoError(t, err)
	back := ExpTarget(logged)
	for i := 0; i < prices.Len(); i++ {
		assert.InEpsilon(t, prices.AtVec(i), back.AtVec(i), 1e-12)
	}
	assert.Same(t, logged, Raw.Inverse(logged))
	assert.InEpsilon(t, 125000.0, Log.Inverse(logged).AtVec(1), 1e-12)
}

func TestLogTargetDomainError(t *testing.T) {
	for _, bad := range []float64{0, -10, math.NaN()} {
		_, err := LogTarget(mat.NewVecDense(3, []float64{100, bad, 200}))
		var de *errors.DomainError
		require.True(t, errors.As(err, &de), "value %v", bad)
		assert.Equal(t, 1, de.Index)
	}
}

func frame(X *mat.Dense, y []float64, names []string) *dataset.Frame {
	n, _ := X.Dims()
	f := &dataset.Frame{X: X, FeatureNames: names, IDs: make([]string, n)}
	if y != nil {
		f.Y = mat.NewVecDense(n, y)
	}
	return f
}

func TestConditionIndependentDropSets(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	prev := log.GetLogger()
	log.SetLogger(logger)
	defer log.SetLogger(prev)

	names := []string{"a", "b", "c", "a_copy", "b_plus_c"}
	soldX := withDependencies(randomMatrix(30, 3, 11))
	y := make([]float64, 30)
	for i := range y {
		y[i] = 100000 + float64(i)*1000
	}

	// The new table has no duplicated structure in the last two columns.
	newX := randomMatrix(10, 5, 12)

	c, err := Condition(frame(soldX, y, names), frame(newX, nil, names), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"a_copy", "b_plus_c"}, c.SoldDropped)
	assert.Empty(t, c.NewDropped)
	_, p := c.Sold.Dims()
	assert.Equal(t, 3, p)
	_, p = c.New.Dims()
	assert.Equal(t, 5, p)
	_, p = c.Aligned.Dims()
	assert.Equal(t, 3, p)
	require.NoError(t, c.LogErr)
	assert.InDelta(t, math.Log(100000), c.Log.AtVec(0), 1e-12)

	assert.True(t, logger.ContainsMessage("Rank-deficient feature matrix, dependent columns dropped"))
	assert.True(t, strings.Contains(logger.String(), "a_copy"))
}

func TestConditionDropsInterceptAliasedPredictors(t *testing.T) {
	names := []string{"x1", "x2", "d1", "d2", "flat"}
	X := withDummies(randomMatrix(40, 2, 21))
	y := make([]float64, 40)
	for i := range y {
		y[i] = 200000 + 5000*X.At(i, 1)
	}

	c, err := Condition(frame(X, y, names), frame(withDummies(randomMatrix(12, 2, 22)), nil, names), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2", "d1"}, c.SoldNames)
	assert.Equal(t, []string{"d2", "flat"}, c.SoldDropped)
	assert.Equal(t, []string{"d2", "flat"}, c.NewDropped)
	_, p := c.Aligned.Dims()
	assert.Equal(t, 3, p)
}

func TestConditionSingleNewRowStillAligned(t *testing.T) {
	names := []string{"a", "b"}
	y := make([]float64, 20)
	for i := range y {
		y[i] = 150000 + float64(i)*500
	}
	one := mat.NewDense(1, 2, []float64{0.3, -1.2})

	c, err := Condition(frame(randomMatrix(20, 2, 31), y, names), frame(one, nil, names), 0)
	require.NoError(t, err)
	assert.Nil(t, c.New)
	assert.Equal(t, names, c.NewDropped)
	require.NotNil(t, c.Aligned)
	assert.Equal(t, []float64{0.3, -1.2}, c.Aligned.RawRowView(0))
}

func TestConditionNonPositivePriceKeepsRawBranch(t *testing.T) {
	X := randomMatrix(6, 2, 2)
	y := []float64{10, 20, 0, 40, 50, 60}
	c, err := Condition(frame(X, y, []string{"a", "b"}), nil, 0)
	require.NoError(t, err)

	assert.Nil(t, c.Log)
	var de *errors.DomainError
	assert.True(t, errors.As(c.LogErr, &de))
	assert.Equal(t, 6, c.Raw.Len())
}

func TestConditionRejectsMismatchedRows(t *testing.T) {
	f := frame(randomMatrix(5, 2, 1), nil, []string{"a", "b"})
	f.Y = mat.NewVecDense(4, []float64{1, 2, 3, 4})
	_, err := Condition(f, nil, 0)
	var inv *errors.InvalidArgumentError
	assert.True(t, errors.As(err, &inv))
}
