package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/metrics"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/preprocessing"
	"github.com/YuminosukeSato/hedonic/split"
)

const (
	defaultNLambda = 100
	defaultTol     = 1e-7
	defaultMaxIter = 100000
	defaultNFolds  = 10

	// λ_max の分母に使う α の下限（リッジで λ_max が発散しないように）
	minAlphaForLambdaMax = 1e-3
	// これ未満の (1/n)Σx² を持つ列は定数列として係数0に固定する
	minColumnScale = 1e-12
)

// cdData は座標降下法のために標準化した計画行列と中心化した目的変数
type cdData struct {
	n, p    int
	cols    [][]float64 // 標準化した説明変数の列
	xsq     []float64   // 各列の (1/n)Σx²
	y       []float64   // 中心化した目的変数
	yMean   float64
	mean    []float64
	scale   []float64
	nullDev float64 // (1/n)Σy²
}

func newCDData(X mat.Matrix, y mat.Vector) (*cdData, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("ElasticNet.Fit", "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError("ElasticNet.Fit", n, y.Len(), 0)
	}

	scaler := preprocessing.NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, err
	}

	d := &cdData{
		n: n, p: p,
		cols:  make([][]float64, p),
		xsq:   make([]float64, p),
		y:     make([]float64, n),
		mean:  scaler.Mean,
		scale: scaler.Scale,
	}
	for j := 0; j < p; j++ {
		d.cols[j] = mat.Col(nil, j, Xs)
		d.xsq[j] = floats.Dot(d.cols[j], d.cols[j]) / float64(n)
	}
	for i := 0; i < n; i++ {
		d.y[i] = y.AtVec(i)
	}
	d.yMean = stat.Mean(d.y, nil)
	floats.AddConst(-d.yMean, d.y)
	d.nullDev = floats.Dot(d.y, d.y) / float64(n)
	return d, nil
}

// lambdaMax は全係数が0になる最小の λ を返す
func (d *cdData) lambdaMax(alpha float64) float64 {
	var m float64
	for j := 0; j < d.p; j++ {
		m = math.Max(m, math.Abs(floats.Dot(d.cols[j], d.y))/float64(d.n))
	}
	return m / math.Max(alpha, minAlphaForLambdaMax)
}

type pathFit struct {
	beta      [][]float64 // 標準化スケールの係数（λごと）
	iters     []int
	converged []bool
}

// path は λ の列に沿ってウォームスタート付き座標降下法を実行する
func (d *cdData) path(alpha float64, lambdas []float64, tol float64, maxIter int) pathFit {
	fit := pathFit{
		beta:      make([][]float64, len(lambdas)),
		iters:     make([]int, len(lambdas)),
		converged: make([]bool, len(lambdas)),
	}
	beta := make([]float64, d.p)
	resid := append([]float64(nil), d.y...)
	for k, lambda := range lambdas {
		fit.iters[k], fit.converged[k] = d.descend(beta, resid, lambda, alpha, tol, maxIter)
		fit.beta[k] = append([]float64(nil), beta...)
	}
	return fit
}

// descend は beta と残差 resid をその場で更新する。
// 収束判定は max_j (1/n)Σx_j² Δβ_j² < tol·nullDev。
func (d *cdData) descend(beta, resid []float64, lambda, alpha, tol float64, maxIter int) (int, bool) {
	if d.nullDev == 0 {
		return 0, true
	}
	l1 := lambda * alpha
	l2 := lambda * (1 - alpha)
	threshold := tol * d.nullDev
	invN := 1 / float64(d.n)

	for iter := 1; iter <= maxIter; iter++ {
		var maxDelta float64
		for j := 0; j < d.p; j++ {
			if d.xsq[j] < minColumnScale {
				continue
			}
			old := beta[j]
			z := floats.Dot(d.cols[j], resid)*invN + d.xsq[j]*old
			updated := softThreshold(z, l1) / (d.xsq[j] + l2)
			if updated == old {
				continue
			}
			floats.AddScaled(resid, old-updated, d.cols[j])
			beta[j] = updated
			maxDelta = math.Max(maxDelta, d.xsq[j]*(updated-old)*(updated-old))
		}
		if maxDelta < threshold {
			return iter, true
		}
	}
	return maxIter, false
}

func softThreshold(z, gamma float64) float64 {
	switch {
	case z > gamma:
		return z - gamma
	case z < -gamma:
		return z + gamma
	default:
		return 0
	}
}

// unscale は標準化スケールの係数を元のスケールの係数と切片に戻す
func (d *cdData) unscale(beta []float64) (*mat.VecDense, float64) {
	coef := mat.NewVecDense(d.p, nil)
	intercept := d.yMean
	for j, b := range beta {
		c := b / d.scale[j]
		coef.SetVec(j, c)
		intercept -= c * d.mean[j]
	}
	return coef, intercept
}

func validateAlpha(op string, alpha float64) error {
	if !(alpha >= 0 && alpha <= 1) {
		return errors.NewInvalidArgumentError(op, "alpha", "mixing parameter must lie in [0, 1]", alpha)
	}
	return nil
}

func countNonZero(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	n := 0
	for _, c := range v.RawVector().Data {
		if c != 0 {
			n++
		}
	}
	return n
}

// ElasticNet fits the elastic-net objective
//
//	1/(2n)‖y − Xβ − β₀‖² + λ[(1−α)/2‖β‖² + α‖β‖₁]
//
// at a single penalty λ by cyclic coordinate descent on standardized
// predictors. Coefficients are reported on the original scale.
type ElasticNet struct {
	*model.StateManager

	Alpha   float64
	Lambda  float64
	Tol     float64
	MaxIter int

	coef      *mat.VecDense
	intercept float64

	// NIter is the number of sweeps the last fit used.
	NIter int
	// Warning is set when coordinate descent hit MaxIter.
	Warning *errors.ConvergenceWarning
}

// NewElasticNet creates an elastic net with mixing alpha and penalty lambda.
func NewElasticNet(alpha, lambda float64) *ElasticNet {
	return &ElasticNet{
		StateManager: model.NewStateManager(),
		Alpha:        alpha,
		Lambda:       lambda,
		Tol:          defaultTol,
		MaxIter:      defaultMaxIter,
	}
}

// Name returns the model family.
func (e *ElasticNet) Name() string { return "ElasticNet" }

// Fit runs coordinate descent at e.Lambda. Non-convergence is reported
// through e.Warning, not as an error.
func (e *ElasticNet) Fit(X mat.Matrix, y mat.Vector) error {
	const op = "ElasticNet.Fit"
	if err := validateAlpha(op, e.Alpha); err != nil {
		return err
	}
	if !(e.Lambda >= 0) {
		return errors.NewInvalidArgumentError(op, "lambda", "penalty must be non-negative", e.Lambda)
	}

	d, err := newCDData(X, y)
	if err != nil {
		return err
	}
	fit := d.path(e.Alpha, []float64{e.Lambda}, e.Tol, e.MaxIter)
	e.coef, e.intercept = d.unscale(fit.beta[0])
	e.NIter = fit.iters[0]
	e.Warning = nil
	if !fit.converged[0] {
		e.Warning = errors.NewConvergenceWarning("ElasticNet", e.MaxIter,
			fmt.Sprintf("alpha=%g lambda=%g", e.Alpha, e.Lambda))
		errors.Warn(e.Warning)
	}

	e.SetDimensions(d.p, d.n)
	e.SetFitted()
	return nil
}

// Predict returns Xβ + β₀.
func (e *ElasticNet) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := e.RequireFitted("ElasticNet", "Predict"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := e.RequireFeatures("ElasticNet.Predict", c); err != nil {
		return nil, err
	}
	return predictLinear(X, e.coef, e.intercept), nil
}

// Coef returns the original-scale coefficients.
func (e *ElasticNet) Coef() []float64 {
	if e.coef == nil {
		return nil
	}
	return append([]float64(nil), e.coef.RawVector().Data...)
}

// Intercept returns the fitted intercept.
func (e *ElasticNet) Intercept() float64 { return e.intercept }

// NonZero returns the number of non-zero coefficients.
func (e *ElasticNet) NonZero() int { return countNonZero(e.coef) }

// ElasticNetCV selects λ for a fixed mixing parameter α by k-fold
// cross-validation over a log-spaced regularization path, then refits on
// all rows it was given at the λ with the lowest mean fold MSE.
type ElasticNetCV struct {
	*model.StateManager

	Alpha          float64
	NLambda        int
	LambdaMinRatio float64
	Tol            float64
	MaxIter        int
	NFolds         int
	Seed           uint64

	// Lambdas is the penalty path, largest first.
	Lambdas []float64
	// CVMean and CVStdErr are the mean fold MSE and its standard error per λ.
	CVMean   []float64
	CVStdErr []float64
	// LambdaMin is the selected penalty, at index LambdaMinIndex of Lambdas.
	LambdaMin      float64
	LambdaMinIndex int

	coef      *mat.VecDense
	intercept float64

	// Warning is set when any path fit, in a fold or on all rows, hit MaxIter.
	Warning *errors.ConvergenceWarning
}

// NewElasticNetCV creates a cross-validated elastic net for mixing alpha.
func NewElasticNetCV(alpha float64, opts ...Option) *ElasticNetCV {
	e := &ElasticNetCV{
		StateManager: model.NewStateManager(),
		Alpha:        alpha,
		NLambda:      defaultNLambda,
		Tol:          defaultTol,
		MaxIter:      defaultMaxIter,
		NFolds:       defaultNFolds,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the model family.
func (e *ElasticNetCV) Name() string { return "ElasticNet" }

// Fit builds the path from all rows, scores every λ on every fold, and
// refits at λ_min. Fold standardization uses only the fold's training rows.
func (e *ElasticNetCV) Fit(X mat.Matrix, y mat.Vector) error {
	const op = "ElasticNetCV.Fit"
	if err := validateAlpha(op, e.Alpha); err != nil {
		return err
	}
	if e.NLambda < 2 {
		return errors.NewInvalidArgumentError(op, "n_lambda", "path needs at least 2 values", e.NLambda)
	}

	full, err := newCDData(X, y)
	if err != nil {
		return err
	}

	ratio := e.LambdaMinRatio
	if ratio <= 0 {
		ratio = 1e-2
		if full.n > full.p {
			ratio = 1e-4
		}
	}
	lambdaMax := full.lambdaMax(e.Alpha)
	if lambdaMax <= 0 {
		lambdaMax = 1
	}
	e.Lambdas = floats.LogSpan(make([]float64, e.NLambda), lambdaMax, lambdaMax*ratio)

	folds, err := split.NewKFold(e.NFolds, true, e.Seed).Split(full.n)
	if err != nil {
		return err
	}

	foldMSE := make([][]float64, e.NLambda)
	for k := range foldMSE {
		foldMSE[k] = make([]float64, len(folds))
	}
	nonConverged := 0
	for f, fold := range folds {
		Xtr, ytr, err := split.Subset(X, y, fold.TrainIndices)
		if err != nil {
			return err
		}
		Xte, yte, err := split.Subset(X, y, fold.TestIndices)
		if err != nil {
			return err
		}
		d, err := newCDData(Xtr, ytr)
		if err != nil {
			return errors.Wrapf(err, "fold %d", f)
		}
		fit := d.path(e.Alpha, e.Lambdas, e.Tol, e.MaxIter)
		for k := range e.Lambdas {
			if !fit.converged[k] {
				nonConverged++
			}
			coef, intercept := d.unscale(fit.beta[k])
			if foldMSE[k][f], err = metrics.MSE(yte, predictLinear(Xte, coef, intercept)); err != nil {
				return err
			}
		}
	}

	e.CVMean = make([]float64, e.NLambda)
	e.CVStdErr = make([]float64, e.NLambda)
	e.LambdaMinIndex = 0
	for k := range e.Lambdas {
		mean, std := stat.MeanStdDev(foldMSE[k], nil)
		e.CVMean[k] = mean
		e.CVStdErr[k] = std / math.Sqrt(float64(len(folds)))
		if mean < e.CVMean[e.LambdaMinIndex] {
			e.LambdaMinIndex = k
		}
	}
	e.LambdaMin = e.Lambdas[e.LambdaMinIndex]

	fit := full.path(e.Alpha, e.Lambdas[:e.LambdaMinIndex+1], e.Tol, e.MaxIter)
	for _, ok := range fit.converged {
		if !ok {
			nonConverged++
		}
	}
	e.coef, e.intercept = full.unscale(fit.beta[e.LambdaMinIndex])

	e.Warning = nil
	if nonConverged > 0 {
		e.Warning = errors.NewConvergenceWarning("ElasticNetCV", e.MaxIter,
			fmt.Sprintf("alpha=%g: %d path fits did not converge", e.Alpha, nonConverged))
		errors.Warn(e.Warning)
	}

	e.SetDimensions(full.p, full.n)
	e.SetFitted()
	return nil
}

// Predict returns Xβ + β₀ at λ_min.
func (e *ElasticNetCV) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := e.RequireFitted("ElasticNetCV", "Predict"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := e.RequireFeatures("ElasticNetCV.Predict", c); err != nil {
		return nil, err
	}
	return predictLinear(X, e.coef, e.intercept), nil
}

// Coef returns the original-scale coefficients at λ_min.
func (e *ElasticNetCV) Coef() []float64 {
	if e.coef == nil {
		return nil
	}
	return append([]float64(nil), e.coef.RawVector().Data...)
}

// Intercept returns the fitted intercept at λ_min.
func (e *ElasticNetCV) Intercept() float64 { return e.intercept }

// NonZero returns the number of non-zero coefficients at λ_min.
func (e *ElasticNetCV) NonZero() int { return countNonZero(e.coef) }
