package compare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/linear"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/preprocessing"
	"github.com/YuminosukeSato/hedonic/search"
)

var (
	olsRaw = search.Variant{Family: search.OLS, Transform: preprocessing.Raw}
	olsLog = search.Variant{Family: search.OLS, Transform: preprocessing.Log}
	enRaw  = search.Variant{Family: search.ElasticNet, Transform: preprocessing.Raw, Alpha: 0.5}
	enLog  = search.Variant{Family: search.ElasticNet, Transform: preprocessing.Log, Alpha: 0.5}
	rfRaw  = search.Variant{Family: search.RandomForest, Transform: preprocessing.Raw, Trees: 500, MinLeaf: 5}
)

func res(v search.Variant, r2 float64) search.Result {
	return search.Result{Variant: v, R2: r2}
}

func TestRankingOrdersByR2AndKeepsNaNLast(t *testing.T) {
	failed := res(rfRaw, math.NaN())
	ranked := Ranking(
		search.Results{res(olsRaw, 0.71), failed},
		search.Results{res(enRaw, 0.85), res(enLog, 0.80)},
	)
	require.Len(t, ranked, 4)
	assert.Equal(t, enRaw, ranked[0].Variant)
	assert.Equal(t, enLog, ranked[1].Variant)
	assert.Equal(t, olsRaw, ranked[2].Variant)
	assert.True(t, math.IsNaN(ranked[3].R2))
}

func TestRankingNegativeR2IsValid(t *testing.T) {
	best, err := Select(search.Results{res(olsRaw, -0.4), res(rfRaw, -0.2)})
	require.NoError(t, err)
	assert.Equal(t, rfRaw, best.Variant)
}

func TestTieBreakPolicy(t *testing.T) {
	tests := []struct {
		name string
		in   search.Results
		want search.Variant
	}{
		{"fewer hyperparameters wins", search.Results{res(rfRaw, 0.9), res(enRaw, 0.9), res(olsLog, 0.9)}, olsLog},
		{"raw before log", search.Results{res(olsLog, 0.9), res(olsRaw, 0.9)}, olsRaw},
		{"within tolerance counts as tie", search.Results{res(enRaw, 0.9+1e-13), res(olsLog, 0.9)}, olsLog},
		{"first seen among equals", search.Results{
			res(search.Variant{Family: search.ElasticNet, Transform: preprocessing.Raw, Alpha: 0.1}, 0.9),
			res(search.Variant{Family: search.ElasticNet, Transform: preprocessing.Raw, Alpha: 0.2}, 0.9),
		}, search.Variant{Family: search.ElasticNet, Transform: preprocessing.Raw, Alpha: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, err := Select(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, best.Variant)
		})
	}
}

// Each neighbouring pair is less than a tolerance apart while the ends are
// not. The ranking must not depend on input order.
func TestRankingNearTiesIndependentOfInputOrder(t *testing.T) {
	a := res(olsRaw, 0.9)
	b := res(enRaw, 0.9+0.8e-12)
	c := res(rfRaw, 0.9+1.6e-12)
	orders := []search.Results{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	var want []search.Variant
	for _, in := range orders {
		var got []search.Variant
		for _, r := range Ranking(in) {
			got = append(got, r.Variant)
		}
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, "input %v", in)
	}
	assert.Equal(t, []search.Variant{rfRaw, enRaw, olsRaw}, want)
}

func TestSelectWithoutUsableCells(t *testing.T) {
	_, err := Select(search.Results{res(olsRaw, math.NaN())})
	assert.Error(t, err)
	_, err = Select()
	assert.Error(t, err)
}

func TestBestPerGroup(t *testing.T) {
	en01 := search.Variant{Family: search.ElasticNet, Transform: preprocessing.Raw, Alpha: 0.1}
	out := BestPerGroup(search.Results{
		res(en01, 0.6), res(enRaw, 0.7), res(enLog, 0.5), res(olsRaw, math.NaN()),
	})
	require.Len(t, out, 3)
	assert.Equal(t, enRaw, out[0].Variant)
	assert.Equal(t, enLog, out[1].Variant)
	assert.Equal(t, olsRaw, out[2].Variant)
}

func olsFactory(search.Variant, uint64) (model.Regressor, error) {
	return linear.NewLinearRegression(), nil
}

func TestFinalizeBackTransformsLogModels(t *testing.T) {
	// price = exp(10 + 0.5 x)
	X := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	logY := mat.NewVecDense(5, nil)
	for i := 0; i < 5; i++ {
		logY.SetVec(i, 10+0.5*X.At(i, 0))
	}
	Xnew := mat.NewDense(2, 1, []float64{5, 1})

	preds, err := Finalize(res(olsLog, 0.99), olsFactory, X, logY, Xnew, []string{"h9", "h2"})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, "h9", preds[0].ID)
	assert.InEpsilon(t, math.Exp(12.5), preds[0].Price, 1e-9)
	assert.Equal(t, "h2", preds[1].ID)
	assert.InEpsilon(t, math.Exp(10.5), preds[1].Price, 1e-9)

	raw, err := Finalize(res(olsRaw, 0.99), olsFactory, X, logY, Xnew, []string{"a", "b"})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, raw[0].Price, 1e-9)
}

func TestFinalizeValidation(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	_, err := Finalize(res(olsRaw, math.NaN()), olsFactory, X, y, X, []string{"a", "b", "c"})
	var inv *errors.InvalidArgumentError
	assert.True(t, errors.As(err, &inv))

	_, err = Finalize(res(olsRaw, 0.5), olsFactory, X, y, X, []string{"a"})
	assert.True(t, errors.As(err, &inv))
}
