package split

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

func assertPartition(t *testing.T, n int, a, b []int) {
	t.Helper()
	seen := make([]int, n)
	for _, i := range append(append([]int(nil), a...), b...) {
		require.True(t, i >= 0 && i < n)
		seen[i]++
	}
	for i, c := range seen {
		assert.Equal(t, 1, c, "row %d", i)
	}
}

func TestTrainTestDeterministicPartition(t *testing.T) {
	for _, n := range []int{2, 3, 17, 100, 1001} {
		s1, err := TrainTest(n, 0.65, 42)
		require.NoError(t, err)
		s2, err := TrainTest(n, 0.65, 42)
		require.NoError(t, err)

		assert.Equal(t, s1, s2)
		assertPartition(t, n, s1.Train, s1.Holdout)
		assert.True(t, sort.IntsAreSorted(s1.Train))
		assert.True(t, sort.IntsAreSorted(s1.Holdout))
	}
}

func TestTrainTestSize(t *testing.T) {
	s, err := TrainTest(100, 0.65, 42)
	require.NoError(t, err)
	assert.Len(t, s.Train, 65)
	assert.Len(t, s.Holdout, 35)

	other, err := TrainTest(100, 0.65, 43)
	require.NoError(t, err)
	assert.NotEqual(t, s.Train, other.Train)
}

func TestTrainTestInvalidArgument(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		fraction float64
	}{
		{"fraction zero", 10, 0},
		{"fraction one", 10, 1},
		{"fraction negative", 10, -0.2},
		{"fraction above one", 10, 1.5},
		{"too few rows", 1, 0.5},
		{"empty hold-out", 10, 0.99},
		{"empty train", 10, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TrainTest(tt.n, tt.fraction, 42)
			var inv *errors.InvalidArgumentError
			assert.True(t, errors.As(err, &inv), "got %v", err)
		})
	}
}

func TestKFoldCoversRows(t *testing.T) {
	for _, shuffle := range []bool{false, true} {
		folds, err := NewKFold(10, shuffle, 7).Split(65)
		require.NoError(t, err)
		require.Len(t, folds, 10)

		var tests []int
		for i, f := range folds {
			assertPartition(t, 65, f.TrainIndices, f.TestIndices)
			tests = append(tests, f.TestIndices...)
			if i < 5 {
				assert.Len(t, f.TestIndices, 7)
			} else {
				assert.Len(t, f.TestIndices, 6)
			}
		}
		sort.Ints(tests)
		for i, v := range tests {
			assert.Equal(t, i, v)
		}
	}

	a, _ := NewKFold(5, true, 1).Split(20)
	b, _ := NewKFold(5, true, 1).Split(20)
	assert.Equal(t, a, b)
}

func TestKFoldRejectsBadSplits(t *testing.T) {
	_, err := NewKFold(1, false, 0).Split(10)
	assert.Error(t, err)
	_, err = NewKFold(11, false, 0).Split(10)
	assert.Error(t, err)
}

func TestSubset(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 0,
		1, 10,
		2, 20,
		3, 30,
	})
	y := mat.NewVecDense(4, []float64{0, 100, 200, 300})

	Xs, ys, err := Subset(X, y, []int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, 30.0, Xs.At(0, 1))
	assert.Equal(t, 1.0, Xs.At(1, 0))
	assert.Equal(t, []float64{300, 100}, ys.RawVector().Data)

	_, _, err = Subset(X, mat.NewVecDense(3, nil), []int{0})
	assert.Error(t, err)
	_, _, err = Subset(X, y, []int{4})
	assert.Error(t, err)
}
