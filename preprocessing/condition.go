package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/dataset"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/pkg/log"
)

// Conditioned holds full-rank feature matrices and both target vectors.
type Conditioned struct {
	// Sold is the sold table without its dependent columns.
	Sold        *mat.Dense
	SoldNames   []string
	SoldDropped []string

	// New is the new table conditioned on its own rows. Its drop set may
	// differ from the sold table's. New is nil when no column of the new
	// table is independent of the constant, as with a single row.
	New        *mat.Dense
	NewNames   []string
	NewDropped []string

	// Aligned is the new table restricted to the columns kept for Sold, the
	// matrix a model trained on Sold predicts from.
	Aligned *mat.Dense

	Raw *mat.VecDense
	// Log is nil when LogErr is set.
	Log    *mat.VecDense
	LogErr error
}

// Condition removes dependent columns from the sold and new tables
// independently, counting the intercept every regression adds, and derives the raw and log targets. Rank deficiency is
// logged, never returned. A non-positive price only disables the log target:
// the DomainError is stored in LogErr. fresh may be nil.
func Condition(sold, fresh *dataset.Frame, tol float64) (*Conditioned, error) {
	const op = "preprocessing.Condition"
	logger := log.GetLogger().With(log.ComponentKey, "preprocessing", log.OperationKey, log.OperationCondition)

	if sold == nil || sold.Y == nil {
		return nil, errors.NewInvalidArgumentError(op, "sold", "sold table must carry a target", nil)
	}
	n, p := sold.X.Dims()
	if sold.Y.Len() != n {
		return nil, errors.NewInvalidArgumentError(op, "y", "target length does not match feature rows", sold.Y.Len())
	}

	soldDropper := NewColumnDropper(sold.FeatureNames)
	soldDropper.Tol = tol
	soldDropper.Intercept = true
	soldX, err := soldDropper.FitTransform(sold.X)
	if err != nil {
		return nil, errors.Wrap(err, "condition sold table")
	}
	reportDropped(logger, "sold", soldDropper, n, p)

	out := &Conditioned{
		Sold:        soldX,
		SoldNames:   soldDropper.KeptNames(),
		SoldDropped: soldDropper.DroppedNames(),
		Raw:         mat.VecDenseCopyOf(sold.Y),
	}

	out.Log, out.LogErr = LogTarget(sold.Y)
	if out.LogErr != nil {
		logger.Warn("Log target unavailable", log.ErrAttrKey, out.LogErr, log.ErrorCodeKey, log.ErrorDomain)
	}

	if fresh == nil {
		return out, nil
	}

	fn, fp := fresh.X.Dims()
	if fp != p {
		return nil, errors.NewDimensionError(op, p, fp, 1)
	}
	newDropper := NewColumnDropper(fresh.FeatureNames)
	newDropper.Tol = tol
	newDropper.Intercept = true
	if err := newDropper.Fit(fresh.X); err != nil {
		var inv *errors.InvalidArgumentError
		if !errors.As(err, &inv) {
			return nil, errors.Wrap(err, "condition new table")
		}
		// A single new house has no column independent of the constant. It is
		// still predicted from Aligned.
		logger.Warn("New table has no independent predictor column",
			"table", "new", log.SamplesKey, fn, log.FeaturesKey, fp)
		out.NewDropped = append([]string(nil), fresh.FeatureNames...)
	} else {
		if out.New, err = newDropper.Transform(fresh.X); err != nil {
			return nil, err
		}
		reportDropped(logger, "new", newDropper, fn, fp)
		out.NewNames = newDropper.KeptNames()
		out.NewDropped = newDropper.DroppedNames()
	}

	if out.Aligned, err = soldDropper.Transform(fresh.X); err != nil {
		return nil, err
	}
	return out, nil
}

func reportDropped(logger log.Logger, table string, d *ColumnDropper, n, p int) {
	if len(d.Dropped) == 0 {
		logger.Debug("Feature matrix has full column rank",
			"table", table, log.SamplesKey, n, log.FeaturesKey, p, log.RankKey, d.Rank)
		return
	}
	logger.Warn("Rank-deficient feature matrix, dependent columns dropped",
		"table", table,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.RankKey, d.Rank,
		log.DroppedColumnsKey, d.DroppedNames(),
	)
}
