// Package split partitions row indices into training and hold-out sets and
// into cross-validation folds. Every partition is a pure function of its
// inputs and seed.
package split

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// Split is a training/hold-out partition of {0,...,n-1}. Both lists are sorted.
type Split struct {
	Train   []int
	Holdout []int
}

// TrainTest draws round(fraction·n) training rows without replacement from
// a PCG stream seeded with seed. The complement is the hold-out set.
func TrainTest(n int, fraction float64, seed uint64) (Split, error) {
	const op = "split.TrainTest"

	if !(fraction > 0 && fraction < 1) {
		return Split{}, errors.NewInvalidArgumentError(op, "fraction", "must lie in (0, 1)", fraction)
	}
	if n < 2 {
		return Split{}, errors.NewInvalidArgumentError(op, "n", "need at least 2 rows", n)
	}
	k := int(math.Round(fraction * float64(n)))
	if k == 0 || k == n {
		return Split{}, errors.NewInvalidArgumentError(op, "fraction", "leaves an empty training or hold-out set", fraction)
	}

	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)

	s := Split{
		Train:   append([]int(nil), perm[:k]...),
		Holdout: append([]int(nil), perm[k:]...),
	}
	sort.Ints(s.Train)
	sort.Ints(s.Holdout)
	return s, nil
}

// Fold is one cross-validation fold.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitting.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a k-fold splitter.
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split generates train/test indices for each fold. Test folds are disjoint
// and cover all n rows; the first n mod k folds hold one extra row.
func (kf *KFold) Split(n int) ([]Fold, error) {
	if kf.NSplits < 2 || kf.NSplits > n {
		return nil, errors.NewInvalidArgumentError("split.KFold.Split", "n_splits",
			"must be at least 2 and at most the number of rows", kf.NSplits)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize, remainder := n/kf.NSplits, n%kf.NSplits
	inTest := make([]bool, n)

	current := 0
	for i := range folds {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		test := append([]int(nil), indices[current:current+testSize]...)
		for _, idx := range test {
			inTest[idx] = true
		}
		train := make([]int, 0, n-testSize)
		for _, idx := range indices {
			if !inTest[idx] {
				train = append(train, idx)
			}
		}
		for _, idx := range test {
			inTest[idx] = false
		}
		folds[i] = Fold{TrainIndices: train, TestIndices: test}
		current += testSize
	}
	return folds, nil
}

// Rows extracts the given rows of X in the given order.
func Rows(X mat.Matrix, idx []int) *mat.Dense {
	_, p := X.Dims()
	out := mat.NewDense(len(idx), p, nil)
	for i, r := range idx {
		for j := 0; j < p; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}

// Elements extracts the given entries of y in the given order.
func Elements(y mat.Vector, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, r := range idx {
		out.SetVec(i, y.AtVec(r))
	}
	return out
}

// Subset extracts matching rows of X and y. It fails when X and y disagree
// on the number of rows.
func Subset(X mat.Matrix, y mat.Vector, idx []int) (*mat.Dense, *mat.VecDense, error) {
	n, _ := X.Dims()
	if y.Len() != n {
		return nil, nil, errors.NewInvalidArgumentError("split.Subset", "y", "length does not match feature rows", y.Len())
	}
	for _, r := range idx {
		if r < 0 || r >= n {
			return nil, nil, errors.NewInvalidArgumentError("split.Subset", "idx", "row index out of range", r)
		}
	}
	return Rows(X, idx), Elements(y, idx), nil
}
