package linear

// Option configures an ElasticNetCV.
type Option func(*ElasticNetCV)

// WithNLambda sets the number of penalty values on the path.
func WithNLambda(n int) Option {
	return func(e *ElasticNetCV) {
		e.NLambda = n
	}
}

// WithLambdaMinRatio sets λ_min/λ_max for the path. Zero selects 1e-4 when
// there are more rows than predictors and 1e-2 otherwise.
func WithLambdaMinRatio(ratio float64) Option {
	return func(e *ElasticNetCV) {
		e.LambdaMinRatio = ratio
	}
}

// WithTol sets the coordinate-descent convergence threshold.
func WithTol(tol float64) Option {
	return func(e *ElasticNetCV) {
		e.Tol = tol
	}
}

// WithMaxIter caps the coordinate-descent sweeps per penalty value.
func WithMaxIter(n int) Option {
	return func(e *ElasticNetCV) {
		e.MaxIter = n
	}
}

// WithNFolds sets the number of cross-validation folds.
func WithNFolds(k int) Option {
	return func(e *ElasticNetCV) {
		e.NFolds = k
	}
}

// WithSeed sets the fold-assignment seed.
func WithSeed(seed uint64) Option {
	return func(e *ElasticNetCV) {
		e.Seed = seed
	}
}
