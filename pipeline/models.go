package pipeline

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/ensemble"
	"github.com/YuminosukeSato/hedonic/linear"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/search"
)

// NewModel builds the unfitted regressor of a variant. The same variant and
// seed always build the same model, so a selected cell can be refit exactly.
func (c Config) NewModel(v search.Variant, seed uint64) (model.Regressor, error) {
	switch v.Family {
	case search.OLS:
		return linear.NewLinearRegression(), nil
	case search.ElasticNet:
		return linear.NewElasticNetCV(v.Alpha,
			linear.WithNFolds(c.Folds),
			linear.WithSeed(seed),
		), nil
	case search.RandomForest:
		return ensemble.NewRandomForest(
			ensemble.WithTrees(v.Trees),
			ensemble.WithMinLeaf(v.MinLeaf),
			ensemble.WithSampleFraction(c.SampleFraction),
			ensemble.WithSeed(seed),
			ensemble.WithNJobs(c.ForestJobs),
		), nil
	default:
		return nil, errors.NewInvalidArgumentError("pipeline.NewModel", "family", "unknown model family", v.Family)
	}
}

type contextFitter interface {
	FitContext(ctx context.Context, X mat.Matrix, y mat.Vector) error
}

func fit(ctx context.Context, m model.Regressor, X mat.Matrix, y mat.Vector) error {
	if cf, ok := m.(contextFitter); ok {
		return cf.FitContext(ctx, X, y)
	}
	return m.Fit(X, y)
}

// diagnostics extracts the convergence warning and family-specific details
// of a fitted model.
func diagnostics(m model.Regressor) (details map[string]float64, warning error) {
	switch fm := m.(type) {
	case *linear.ElasticNetCV:
		details = map[string]float64{
			"lambda_min": fm.LambdaMin,
			"nonzero":    float64(fm.NonZero()),
		}
		if fm.Warning != nil {
			warning = fm.Warning
		}
		return details, warning
	case *ensemble.RandomForest:
		details = map[string]float64{"mtry": float64(fm.MTryUsed())}
		if fm.Warning != nil {
			warning = fm.Warning
		}
		return details, warning
	case *linear.LinearRegression:
		return map[string]float64{"intercept": fm.Intercept()}, nil
	default:
		return nil, nil
	}
}
