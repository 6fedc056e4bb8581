// Package ensemble implements the random-forest regressor.
package ensemble

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/core/parallel"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/search"
	"github.com/YuminosukeSato/hedonic/split"
	"github.com/YuminosukeSato/hedonic/tree"
)

const (
	defaultTrees          = 500
	defaultMinLeaf        = 5
	defaultSampleFraction = 0.5
)

// RandomForest averages regression trees, each grown on a subsample drawn
// without replacement. Honesty is disabled: the subsample both places the
// splits and estimates the leaf means.
type RandomForest struct {
	state *model.StateManager

	// NTrees is the number of trees.
	NTrees int
	// MinLeaf is the minimum number of rows in a leaf.
	MinLeaf int
	// SampleFraction is the share of rows drawn for each tree.
	SampleFraction float64
	// MTry is the number of candidate predictors per split; 0 selects
	// round(sqrt(p)), at least 1.
	MTry int
	// MaxDepth bounds tree depth; 0 is unlimited.
	MaxDepth int
	// Seed is the forest seed. Tree t uses search.DeriveSeed(Seed, t).
	Seed uint64
	// NJobs is the number of goroutines growing trees. Results do not
	// depend on it.
	NJobs int

	trees []*tree.Regressor
	mtry  int

	// Warning is set when no tree found an admissible split.
	Warning *errors.ConvergenceWarning
}

// Option configures a RandomForest.
type Option func(*RandomForest)

// WithTrees sets the number of trees.
func WithTrees(n int) Option { return func(f *RandomForest) { f.NTrees = n } }

// WithMinLeaf sets the minimum leaf size.
func WithMinLeaf(n int) Option { return func(f *RandomForest) { f.MinLeaf = n } }

// WithSampleFraction sets the per-tree subsample fraction.
func WithSampleFraction(frac float64) Option {
	return func(f *RandomForest) { f.SampleFraction = frac }
}

// WithMTry sets the number of candidate predictors per split.
func WithMTry(n int) Option { return func(f *RandomForest) { f.MTry = n } }

// WithMaxDepth bounds tree depth.
func WithMaxDepth(n int) Option { return func(f *RandomForest) { f.MaxDepth = n } }

// WithSeed sets the forest seed.
func WithSeed(seed uint64) Option { return func(f *RandomForest) { f.Seed = seed } }

// WithNJobs sets the number of goroutines growing trees.
func WithNJobs(n int) Option { return func(f *RandomForest) { f.NJobs = n } }

// NewRandomForest creates a forest with 500 trees, min leaf 5 and a 0.5
// subsample fraction unless overridden.
func NewRandomForest(opts ...Option) *RandomForest {
	f := &RandomForest{
		state:          model.NewStateManager(),
		NTrees:         defaultTrees,
		MinLeaf:        defaultMinLeaf,
		SampleFraction: defaultSampleFraction,
		NJobs:          1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the model family.
func (f *RandomForest) Name() string { return "RandomForest" }

// DefaultMTry returns round(sqrt(p)), at least 1.
func DefaultMTry(p int) int {
	return max(1, int(math.Round(math.Sqrt(float64(p)))))
}

// Fit grows the forest.
func (f *RandomForest) Fit(X mat.Matrix, y mat.Vector) error {
	return f.FitContext(context.Background(), X, y)
}

// FitContext grows the forest, stopping early when ctx is cancelled.
func (f *RandomForest) FitContext(ctx context.Context, X mat.Matrix, y mat.Vector) error {
	const op = "RandomForest.Fit"

	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return errors.NewDimensionError(op, n, y.Len(), 0)
	}
	if f.NTrees < 1 {
		return errors.NewInvalidArgumentError(op, "n_trees", "must be at least 1", f.NTrees)
	}
	if f.MinLeaf < 1 {
		return errors.NewInvalidArgumentError(op, "min_leaf", "must be at least 1", f.MinLeaf)
	}
	if !(f.SampleFraction > 0 && f.SampleFraction <= 1) {
		return errors.NewInvalidArgumentError(op, "sample_fraction", "must lie in (0, 1]", f.SampleFraction)
	}

	f.mtry = f.MTry
	if f.mtry <= 0 {
		f.mtry = DefaultMTry(p)
	}
	f.mtry = min(f.mtry, p)
	sampleSize := min(n, max(1, int(math.Round(f.SampleFraction*float64(n)))))

	trees := make([]*tree.Regressor, f.NTrees)
	errs := make([]error, f.NTrees)
	err := parallel.ForEach(ctx, f.NTrees, f.NJobs, func(t int) {
		trees[t], errs[t] = f.growTree(X, y, n, sampleSize, search.DeriveSeed(f.Seed, t))
	})
	if err != nil {
		return err
	}
	for t, e := range errs {
		if e != nil {
			return errors.Wrapf(e, "tree %d", t)
		}
	}
	f.trees = trees

	f.Warning = nil
	stumps := 0
	for _, t := range trees {
		if t.Root().IsLeaf {
			stumps++
		}
	}
	if stumps == len(trees) {
		f.Warning = errors.NewConvergenceWarning("RandomForest", 0,
			fmt.Sprintf("no tree could split %d sampled rows with min_leaf=%d", sampleSize, f.MinLeaf))
		errors.Warn(f.Warning)
	}

	f.state.SetDimensions(p, n)
	f.state.SetFitted()
	return nil
}

func (f *RandomForest) growTree(X mat.Matrix, y mat.Vector, n, sampleSize int, seed uint64) (*tree.Regressor, error) {
	rng := rand.New(rand.NewPCG(seed, seed))
	rows := rng.Perm(n)[:sampleSize]
	Xs, ys, err := split.Subset(X, y, rows)
	if err != nil {
		return nil, err
	}
	t := tree.NewRegressor(
		tree.WithMinSamplesLeaf(f.MinLeaf),
		tree.WithMaxDepth(f.MaxDepth),
		tree.WithMaxFeatures(f.mtry),
		tree.WithRandomState(rng.Uint64()),
	)
	if err := t.Fit(Xs, ys); err != nil {
		return nil, err
	}
	return t, nil
}

// Predict averages the trees' predictions.
func (f *RandomForest) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := f.state.RequireFitted("RandomForest", "Predict"); err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if err := f.state.RequireFeatures("RandomForest.Predict", p); err != nil {
		return nil, err
	}

	out := mat.NewVecDense(n, nil)
	parallel.ParallelizeWorkers(n, f.NJobs, func(start, end int) {
		for i := start; i < end; i++ {
			var sum float64
			for _, t := range f.trees {
				sum += t.PredictRow(X, i)
			}
			out.SetVec(i, sum/float64(len(f.trees)))
		}
	})
	return out, nil
}

// MTryUsed returns the candidate predictor count of the last fit.
func (f *RandomForest) MTryUsed() int { return f.mtry }

// Trees returns the fitted trees.
func (f *RandomForest) Trees() []*tree.Regressor { return f.trees }
