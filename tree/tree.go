// Package tree implements the CART regression tree grown by the random forest.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// TreeNode represents a node in the regression tree
type TreeNode struct {
	IsLeaf    bool      // Whether this is a leaf node
	Feature   int       // Feature index for split (internal nodes)
	Threshold float64   // Threshold value for split (internal nodes)
	Left      *TreeNode // Left child (values <= threshold)
	Right     *TreeNode // Right child (values > threshold)
	Value     float64   // Mean target of the rows reaching this node
	Impurity  float64   // Node variance
	NSamples  int       // Number of samples at this node
	Depth     int       // Depth of this node in the tree
}

// Regressor is a variance-reduction regression tree. At every node it
// considers maxFeatures predictors sampled without replacement, and a split is
// admissible only when both children keep at least minSamplesLeaf rows.
type Regressor struct {
	state *model.StateManager

	// Hyperparameters
	minSamplesLeaf int    // Minimum samples in a leaf
	maxDepth       int    // Maximum depth of tree (0 = unlimited)
	maxFeatures    int    // Candidate features per split (0 = all)
	randomState    uint64 // Seed for feature sampling

	root      *TreeNode
	nFeatures int
	nLeaves   int
	depth     int
}

// Option is a functional option for Regressor
type Option func(*Regressor)

// NewRegressor creates a new regression tree
func NewRegressor(opts ...Option) *Regressor {
	t := &Regressor{
		state:          model.NewStateManager(),
		minSamplesLeaf: 1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithMinSamplesLeaf sets minimum samples in leaf
func WithMinSamplesLeaf(n int) Option {
	return func(t *Regressor) {
		t.minSamplesLeaf = n
	}
}

// WithMaxDepth sets the maximum tree depth
func WithMaxDepth(depth int) Option {
	return func(t *Regressor) {
		t.maxDepth = depth
	}
}

// WithMaxFeatures sets how many features each split considers
func WithMaxFeatures(n int) Option {
	return func(t *Regressor) {
		t.maxFeatures = n
	}
}

// WithRandomState sets the random seed
func WithRandomState(seed uint64) Option {
	return func(t *Regressor) {
		t.randomState = seed
	}
}

// Name returns the model family.
func (t *Regressor) Name() string { return "RegressionTree" }

// Fit grows the tree on all rows of X.
func (t *Regressor) Fit(X mat.Matrix, y mat.Vector) error {
	const op = "tree.Regressor.Fit"

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y.Len() != nSamples {
		return errors.NewDimensionError(op, nSamples, y.Len(), 0)
	}
	if t.minSamplesLeaf < 1 {
		return errors.NewInvalidArgumentError(op, "min_samples_leaf", "must be at least 1", t.minSamplesLeaf)
	}

	mtry := t.maxFeatures
	if mtry <= 0 || mtry > nFeatures {
		mtry = nFeatures
	}

	b := &builder{
		cols:     make([][]float64, nFeatures),
		y:        make([]float64, nSamples),
		rng:      rand.New(rand.NewPCG(t.randomState, t.randomState^0x9e3779b97f4a7c15)),
		minLeaf:  t.minSamplesLeaf,
		maxDepth: t.maxDepth,
		mtry:     mtry,
		sorted:   make([]int, nSamples),
	}
	for j := 0; j < nFeatures; j++ {
		b.cols[j] = mat.Col(nil, j, X)
	}
	for i := 0; i < nSamples; i++ {
		b.y[i] = y.AtVec(i)
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	t.root = b.grow(indices, 0)
	t.nLeaves = b.leaves
	t.depth = b.deepest
	t.nFeatures = nFeatures

	t.state.SetDimensions(nFeatures, nSamples)
	t.state.SetFitted()
	return nil
}

// Predict returns the leaf mean reached by every row of X.
func (t *Regressor) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := t.state.RequireFitted("RegressionTree", "Predict"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := t.state.RequireFeatures("RegressionTree.Predict", nFeatures); err != nil {
		return nil, err
	}
	out := mat.NewVecDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		out.SetVec(i, t.PredictRow(X, i))
	}
	return out, nil
}

// PredictRow walks row i of X down the tree. The tree must be fitted.
func (t *Regressor) PredictRow(X mat.Matrix, i int) float64 {
	node := t.root
	for !node.IsLeaf {
		if X.At(i, node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// IsFitted reports whether Fit has completed.
func (t *Regressor) IsFitted() bool { return t.state.IsFitted() }

// Root returns the root node, nil before Fit.
func (t *Regressor) Root() *TreeNode { return t.root }

// GetDepth returns the depth of the deepest leaf.
func (t *Regressor) GetDepth() int { return t.depth }

// GetNLeaves returns the number of leaves.
func (t *Regressor) GetNLeaves() int { return t.nLeaves }

type builder struct {
	cols     [][]float64
	y        []float64
	rng      *rand.Rand
	minLeaf  int
	maxDepth int
	mtry     int
	sorted   []int

	leaves  int
	deepest int
}

func (b *builder) leaf(node *TreeNode) *TreeNode {
	node.IsLeaf = true
	b.leaves++
	b.deepest = max(b.deepest, node.Depth)
	return node
}

func (b *builder) grow(idx []int, depth int) *TreeNode {
	n := len(idx)
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	mean := sum / float64(n)
	node := &TreeNode{
		Value:    mean,
		NSamples: n,
		Depth:    depth,
		Impurity: math.Max(0, sumSq/float64(n)-mean*mean),
	}

	if n < 2*b.minLeaf || (b.maxDepth > 0 && depth >= b.maxDepth) || node.Impurity == 0 {
		return b.leaf(node)
	}

	feature, threshold, ok := b.bestSplit(idx, sum)
	if !ok {
		return b.leaf(node)
	}

	// Partition idx in place: rows with value <= threshold first.
	col := b.cols[feature]
	lo, hi := 0, n-1
	for lo <= hi {
		if col[idx[lo]] <= threshold {
			lo++
		} else {
			idx[lo], idx[hi] = idx[hi], idx[lo]
			hi--
		}
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = b.grow(idx[:lo], depth+1)
	node.Right = b.grow(idx[lo:], depth+1)
	return node
}

// bestSplit maximizes sumL²/nL + sumR²/nR, which is equivalent to
// minimizing the children's total squared error.
func (b *builder) bestSplit(idx []int, total float64) (int, float64, bool) {
	n := len(idx)
	parent := total * total / float64(n)
	bestScore := parent + 1e-12*math.Max(1, math.Abs(parent))
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := b.sorted[:n]
	for _, feature := range b.rng.Perm(len(b.cols))[:b.mtry] {
		col := b.cols[feature]
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool {
			return col[sorted[i]] < col[sorted[j]]
		})

		var sumL float64
		for i := 0; i < n-1; i++ {
			sumL += b.y[sorted[i]]
			nL := i + 1
			if nL < b.minLeaf {
				continue
			}
			nR := n - nL
			if nR < b.minLeaf {
				break
			}
			v1, v2 := col[sorted[i]], col[sorted[i+1]]
			if v1 == v2 {
				continue
			}
			sumR := total - sumL
			score := sumL*sumL/float64(nL) + sumR*sumR/float64(nR)
			if score > bestScore {
				threshold := (v1 + v2) / 2.0
				if threshold >= v2 {
					threshold = v1
				}
				bestScore, bestFeature, bestThreshold, found = score, feature, threshold, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
