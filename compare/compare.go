// Package compare ranks every evaluated model variant by hold-out R² and
// turns the winner into predictions for unseen rows.
package compare

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/preprocessing"
	"github.com/YuminosukeSato/hedonic/search"
)

// TieTolerance is the width of the R² buckets inside which variants are tied.
const TieTolerance = 1e-12

// r2Bucket maps R² onto a grid of TieTolerance steps. Comparing buckets
// instead of differences keeps the ordering transitive.
func r2Bucket(r2 float64) float64 {
	return math.Round(r2 / TieTolerance)
}

// ranksBefore orders usable results by R² bucket descending. Ties go to the family
// with fewer hyperparameters, then to the raw target. Remaining ties keep
// grid order.
func ranksBefore(a, b search.Result) bool {
	ua, ub := a.Usable(), b.Usable()
	if ua != ub {
		return ua
	}
	if !ua {
		return false
	}
	if ba, bb := r2Bucket(a.R2), r2Bucket(b.R2); ba != bb {
		return ba > bb
	}
	ha, hb := a.Variant.Family.Hyperparameters(), b.Variant.Family.Hyperparameters()
	if ha != hb {
		return ha < hb
	}
	return a.Variant.Transform == preprocessing.Raw && b.Variant.Transform != preprocessing.Raw
}

// Ranking merges the tables into one list, best first. Unusable cells (NaN
// R², failed fits) stay in the list after every usable cell.
func Ranking(tables ...search.Results) search.Results {
	var all search.Results
	for _, t := range tables {
		all = append(all, t...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return ranksBefore(all[i], all[j])
	})
	return all
}

// Select returns the best usable variant across all tables.
func Select(tables ...search.Results) (search.Result, error) {
	ranked := Ranking(tables...)
	if len(ranked) == 0 || !ranked[0].Usable() {
		return search.Result{}, errors.NewModelError("compare.Select", "no usable model variant", nil)
	}
	return ranked[0], nil
}

// BestPerGroup returns the best usable result of every (family, transform)
// pair, in first-seen order.
func BestPerGroup(rs search.Results) search.Results {
	type group struct {
		family    search.Family
		transform preprocessing.Transform
	}
	var order []group
	best := map[group]search.Result{}
	for _, r := range rs {
		g := group{r.Variant.Family, r.Variant.Transform}
		cur, seen := best[g]
		if !seen {
			order = append(order, g)
			best[g] = r
			continue
		}
		if ranksBefore(r, cur) {
			best[g] = r
		}
	}
	out := make(search.Results, 0, len(order))
	for _, g := range order {
		out = append(out, best[g])
	}
	return out
}

// Prediction is one output row.
type Prediction struct {
	ID    string
	Price float64
}

// Factory builds an unfitted regressor for a variant and seed.
type Factory func(v search.Variant, seed uint64) (model.Regressor, error)

// Finalize retrains the selected variant on the training split with the seed
// it was evaluated with, predicts the new rows and maps log-space outputs
// back to prices. yTrain must already be in the variant's target space.
// Output rows follow the order of ids.
func Finalize(best search.Result, build Factory, Xtrain mat.Matrix, yTrain mat.Vector, Xnew mat.Matrix, ids []string) ([]Prediction, error) {
	const op = "compare.Finalize"

	if !best.Usable() {
		return nil, errors.NewInvalidArgumentError(op, "best", "selected variant has no usable score", best.Variant.Key())
	}
	n, _ := Xnew.Dims()
	if len(ids) != n {
		return nil, errors.NewInvalidArgumentError(op, "ids", "identifier count does not match new rows", len(ids))
	}

	m, err := build(best.Variant, best.Seed)
	if err != nil {
		return nil, err
	}
	if err := m.Fit(Xtrain, yTrain); err != nil {
		return nil, errors.Wrapf(err, "retrain %s", best.Variant.Key())
	}
	pred, err := m.Predict(Xnew)
	if err != nil {
		return nil, err
	}
	prices := best.Variant.Transform.Inverse(pred)

	out := make([]Prediction, n)
	for i := range out {
		out[i] = Prediction{ID: ids[i], Price: prices.AtVec(i)}
	}
	return out, nil
}
