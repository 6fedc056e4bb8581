// Package pipeline runs the full hold-out comparison: it conditions the sold
// table, splits it once, evaluates every configured model variant on the
// shared hold-out rows, selects the best and predicts the new table.
package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/compare"
	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/dataset"
	"github.com/YuminosukeSato/hedonic/linear"
	"github.com/YuminosukeSato/hedonic/metrics"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/pkg/log"
	"github.com/YuminosukeSato/hedonic/preprocessing"
	"github.com/YuminosukeSato/hedonic/search"
	"github.com/YuminosukeSato/hedonic/split"
)

// branch is one target transform evaluated on the shared split.
type branch struct {
	transform preprocessing.Transform
	yTrain    *mat.VecDense
	eval      *metrics.HoldoutEvaluator
}

type run struct {
	cfg    Config
	xTrain *mat.Dense
	xHold  *mat.Dense
	logger log.Logger
}

// Run executes the comparison. fresh may be nil, in which case no
// predictions are produced.
func Run(ctx context.Context, cfg Config, sold dataset.Table, fresh *dataset.Table) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	logger := log.GetLogger().With(log.ComponentKey, "pipeline", log.RandomSeedKey, cfg.Seed)

	schema, err := cfg.Schema.Build(sold.Header)
	if err != nil {
		return nil, err
	}
	soldFrame, err := schema.Resolve(sold, true)
	if err != nil {
		return nil, errors.Wrap(err, "resolve sold table")
	}
	var newFrame *dataset.Frame
	if fresh != nil {
		if newFrame, err = schema.Resolve(*fresh, false); err != nil {
			return nil, errors.Wrap(err, "resolve new table")
		}
	}

	cond, err := preprocessing.Condition(soldFrame, newFrame, cfg.RankTol)
	if err != nil {
		return nil, err
	}
	n, p := cond.Sold.Dims()

	sp, err := split.TrainTest(n, cfg.TrainFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	logger.Info("Split sold table",
		log.OperationKey, log.OperationSplit,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.TrainSamplesKey, len(sp.Train),
		log.HoldoutSamplesKey, len(sp.Holdout),
	)

	r := &run{
		cfg:    cfg,
		xTrain: split.Rows(cond.Sold, sp.Train),
		xHold:  split.Rows(cond.Sold, sp.Holdout),
		logger: logger,
	}
	report := newReport(cfg, soldFrame, cond, sp)

	var branches []branch
	for _, t := range cfg.Transforms {
		y := cond.Raw
		if t == preprocessing.Log {
			if cond.LogErr != nil {
				logger.Error("Log-target branch skipped", log.TransformKey, string(t), log.ErrAttrKey, cond.LogErr)
				report.Skipped = append(report.Skipped, SkippedBranch{Transform: t, Reason: cond.LogErr.Error()})
				continue
			}
			y = cond.Log
		}
		eval, err := metrics.NewHoldoutEvaluator(split.Elements(y, sp.Holdout))
		if err != nil {
			return nil, errors.Wrapf(err, "%s target hold-out", t)
		}
		branches = append(branches, branch{transform: t, yTrain: split.Elements(y, sp.Train), eval: eval})
	}
	if len(branches) == 0 {
		return nil, errors.NewInvalidArgumentError("pipeline.Run", "transforms", "every target transform was skipped", cfg.Transforms)
	}

	var tasks []search.Task
	for _, b := range branches {
		tasks = append(tasks, r.tasks(b)...)
	}
	results, err := r.runner().Run(ctx, tasks)
	if err != nil {
		return nil, err
	}

	ranked := compare.Ranking(results)
	report.fill(cfg, results, ranked)

	best, err := compare.Select(results)
	if err != nil {
		return nil, err
	}
	logger.Info("Selected model variant",
		log.VariantKey, best.Variant.Key(),
		log.R2ScoreKey, best.R2,
		log.OperationKey, log.OperationScore,
	)

	if newFrame != nil {
		var yTrain *mat.VecDense
		for _, b := range branches {
			if b.transform == best.Variant.Transform {
				yTrain = b.yTrain
			}
		}
		preds, err := compare.Finalize(best, cfg.NewModel, r.xTrain, yTrain, cond.Aligned, newFrame.IDs)
		if err != nil {
			return nil, errors.Wrap(err, "predict new table")
		}
		report.Predictions = preds
		logger.Info("Predicted new table",
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseInference,
			log.SamplesKey, len(preds),
		)
	}

	report.DurationMs = time.Since(start).Milliseconds()
	return report, nil
}

func (r *run) runner() search.Runner {
	if r.cfg.Workers == 1 {
		return search.Sequential{}
	}
	return search.Parallel{Workers: r.cfg.Workers}
}

// tasks lists the grid cells of one target transform in grid order:
// OLS, then α ascending, then trees × min leaf.
func (r *run) tasks(b branch) []search.Task {
	var tasks []search.Task
	add := func(v search.Variant) {
		tasks = append(tasks, search.NewTask(r.cfg.Seed, v, r.evaluate(v, b)))
	}
	if r.cfg.hasFamily(search.OLS) {
		add(search.Variant{Family: search.OLS, Transform: b.transform})
	}
	if r.cfg.hasFamily(search.ElasticNet) {
		for _, a := range r.cfg.AlphaGrid() {
			add(search.Variant{Family: search.ElasticNet, Transform: b.transform, Alpha: a})
		}
	}
	if r.cfg.hasFamily(search.RandomForest) {
		for _, t := range r.cfg.Trees {
			for _, l := range r.cfg.MinLeaf {
				add(search.Variant{Family: search.RandomForest, Transform: b.transform, Trees: t, MinLeaf: l})
			}
		}
	}
	return tasks
}

// evaluate fits a fresh model on the training rows and scores it on the
// hold-out rows against the branch's cached SST.
func (r *run) evaluate(v search.Variant, b branch) func(context.Context, uint64) (search.Outcome, error) {
	return func(ctx context.Context, seed uint64) (search.Outcome, error) {
		m, err := r.cfg.NewModel(v, seed)
		if err != nil {
			return search.Outcome{}, err
		}
		if err := fit(ctx, m, r.xTrain, b.yTrain); err != nil {
			return search.Outcome{}, err
		}
		pred, err := m.Predict(r.xHold)
		if err != nil {
			return search.Outcome{}, err
		}
		r2, err := b.eval.Score(pred)
		if err != nil {
			return search.Outcome{}, err
		}

		if named, ok := m.(model.Named); ok {
			r.logger.Debug("Variant scored",
				log.ModelNameKey, named.Name(),
				log.VariantKey, v.Key(),
				log.R2ScoreKey, r2,
			)
		}

		details, warning := diagnostics(m)
		if v.Family == search.OLS {
			r.olsStability(v, b, seed, details)
		}
		return search.Outcome{R2: r2, Warning: warning, Details: details}, nil
	}
}

// olsStability adds the k-fold CV summary of OLS on the training rows. It is
// reported only and never used for selection.
func (r *run) olsStability(v search.Variant, b branch, seed uint64, details map[string]float64) {
	kf := split.NewKFold(r.cfg.Folds, true, seed)
	cv, err := linear.CrossValidate(func() model.Regressor { return linear.NewLinearRegression() }, r.xTrain, b.yTrain, kf)
	if err != nil {
		r.logger.Warn("OLS stability check failed", log.VariantKey, v.Key(), log.ErrAttrKey, err)
		return
	}
	details["cv_mse_mean"] = cv.MeanMSE()
	details["cv_mse_std"] = cv.StdMSE()
	details["cv_r2_mean"] = cv.MeanR2()
}
