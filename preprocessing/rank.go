package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// RankResult is the outcome of a singular-value rank analysis.
type RankResult struct {
	Rank     int
	Tol      float64
	Singular []float64
}

// Nullity is the number of columns beyond the rank.
func (r RankResult) Nullity(cols int) int {
	return cols - r.Rank
}

// DefaultRankTol returns max(n,p)·ε·σmax, the usual numerical-rank cutoff.
func DefaultRankTol(n, p int, sigmaMax float64) float64 {
	return float64(max(n, p)) * eps * sigmaMax
}

const eps = 0x1p-52

// RankAnalysis computes the numerical rank of X from its singular values.
// A non-positive tol selects DefaultRankTol.
func RankAnalysis(X mat.Matrix, tol float64) (RankResult, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return RankResult{}, errors.NewModelError("preprocessing.RankAnalysis", "empty data", errors.ErrEmptyData)
	}

	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDNone) {
		return RankResult{}, errors.NewModelError("preprocessing.RankAnalysis", "SVD did not converge", errors.ErrSingularMatrix)
	}
	values := svd.Values(nil)

	if tol <= 0 {
		tol = DefaultRankTol(n, p, values[0])
	}
	return RankResult{Rank: countAbove(values, tol), Tol: tol, Singular: values}, nil
}

func countAbove(values []float64, tol float64) int {
	rank := 0
	for _, v := range values {
		if v > tol {
			rank++
		}
	}
	return rank
}

// DependentColumns scans columns left to right and keeps a column only when
// it raises the rank of the columns already kept. The number of dropped
// columns equals the nullity of X, and the kept columns have full rank.
// A non-positive tol selects DefaultRankTol for the whole matrix, and the
// same cutoff is used for every candidate set.
func DependentColumns(X mat.Matrix, tol float64) (kept, dropped []int, err error) {
	return scanColumns(X, tol, 0)
}

// DependentColumnsWithIntercept runs the same scan over [1 | X] with the
// constant column kept first. A constant predictor, or a set of predictors
// summing to a constant such as a full one-hot encoding, is dropped, so the
// kept columns stay full rank once a model adds its intercept. Indices refer
// to the columns of X.
func DependentColumnsWithIntercept(X mat.Matrix, tol float64) (kept, dropped []int, err error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, nil, errors.NewModelError("preprocessing.DependentColumnsWithIntercept", "empty data", errors.ErrEmptyData)
	}
	design := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			design.Set(i, j+1, X.At(i, j))
		}
	}
	k, d, err := scanColumns(design, tol, 1)
	if err != nil {
		return nil, nil, err
	}
	for _, j := range k[1:] {
		kept = append(kept, j-1)
	}
	for _, j := range d {
		dropped = append(dropped, j-1)
	}
	return kept, dropped, nil
}

// scanColumns keeps the first forced columns unconditionally and then scans
// the rest.
func scanColumns(X mat.Matrix, tol float64, forced int) (kept, dropped []int, err error) {
	full, err := RankAnalysis(X, tol)
	if err != nil {
		return nil, nil, err
	}
	n, p := X.Dims()

	for j := 0; j < forced; j++ {
		kept = append(kept, j)
	}
	for j := forced; j < p; j++ {
		if len(kept) == full.Rank {
			dropped = append(dropped, j)
			continue
		}
		candidate := append(append([]int(nil), kept...), j)
		if candidateRank(X, n, candidate, full.Tol) > len(kept) {
			kept = candidate
		} else {
			dropped = append(dropped, j)
		}
	}
	return kept, dropped, nil
}

func candidateRank(X mat.Matrix, n int, cols []int, tol float64) int {
	sub := selectColumns(X, n, cols)
	var svd mat.SVD
	if !svd.Factorize(sub, mat.SVDNone) {
		return 0
	}
	return countAbove(svd.Values(nil), tol)
}

func selectColumns(X mat.Matrix, n int, cols []int) *mat.Dense {
	out := mat.NewDense(n, len(cols), nil)
	for k, j := range cols {
		for i := 0; i < n; i++ {
			out.Set(i, k, X.At(i, j))
		}
	}
	return out
}

// ColumnDropper removes linearly dependent columns found at fit time.
type ColumnDropper struct {
	*model.StateManager

	// Tol is the singular-value cutoff; non-positive selects DefaultRankTol.
	Tol float64
	// Names labels the input columns. May be nil.
	Names []string
	// Intercept treats the columns as a design that a model extends with a
	// constant column, so columns aliased with the constant are dropped.
	Intercept bool

	Kept    []int
	Dropped []int
	Rank    int
}

// NewColumnDropper creates a dropper for columns labelled by names.
func NewColumnDropper(names []string) *ColumnDropper {
	return &ColumnDropper{StateManager: model.NewStateManager(), Names: names}
}

var _ model.Transformer = (*ColumnDropper)(nil)

// Fit finds the dependent columns of X.
func (d *ColumnDropper) Fit(X mat.Matrix) error {
	n, p := X.Dims()
	if d.Names != nil && len(d.Names) != p {
		return errors.NewDimensionError("ColumnDropper.Fit", len(d.Names), p, 1)
	}
	scan := DependentColumns
	if d.Intercept {
		scan = DependentColumnsWithIntercept
	}
	kept, dropped, err := scan(X, d.Tol)
	if err != nil {
		return err
	}
	if len(kept) == 0 {
		return errors.NewInvalidArgumentError("ColumnDropper.Fit", "X", "no linearly independent predictor column", p)
	}
	d.Kept, d.Dropped, d.Rank = kept, dropped, len(kept)
	d.SetDimensions(p, n)
	d.SetFitted()
	return nil
}

// Transform returns X without the dropped columns.
func (d *ColumnDropper) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := d.RequireFitted("ColumnDropper", "Transform"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := d.RequireFeatures("ColumnDropper.Transform", p); err != nil {
		return nil, err
	}
	return selectColumns(X, n, d.Kept), nil
}

// FitTransform fits on X and removes its dependent columns.
func (d *ColumnDropper) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := d.Fit(X); err != nil {
		return nil, err
	}
	return d.Transform(X)
}

// KeptNames returns the names of the surviving columns.
func (d *ColumnDropper) KeptNames() []string { return d.pick(d.Kept) }

// DroppedNames returns the names of the removed columns.
func (d *ColumnDropper) DroppedNames() []string { return d.pick(d.Dropped) }

func (d *ColumnDropper) pick(idx []int) []string {
	if d.Names == nil {
		return nil
	}
	out := make([]string, len(idx))
	for k, j := range idx {
		out[k] = d.Names[j]
	}
	return out
}

// IsFullRank reports whether X has full column rank under the default cutoff.
func IsFullRank(X mat.Matrix) bool {
	_, p := X.Dims()
	r, err := RankAnalysis(X, 0)
	return err == nil && r.Rank == p
}
