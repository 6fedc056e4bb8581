package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/core/model"
	"github.com/YuminosukeSato/hedonic/core/parallel"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// maxCondition を超える条件数の計画行列は特異とみなす
const maxCondition = 1e12

// LinearRegression は切片付きの最小二乗線形回帰モデル
type LinearRegression struct {
	*model.StateManager

	weights   *mat.VecDense // 重み（係数）
	intercept float64       // 切片

	// Singular は学習時の計画行列（切片列を含む）の特異値
	Singular []float64
	// Rank は計画行列の数値ランク
	Rank int
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{StateManager: model.NewStateManager()}
}

// Name はモデルファミリー名を返す
func (lr *LinearRegression) Name() string { return "OLS" }

// withIntercept は X の先頭に 1 の列を追加した計画行列を作る
func withIntercept(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	design := mat.NewDense(r, c+1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			design.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				design.Set(i, j+1, X.At(i, j))
			}
		}
	})
	return design
}

// Fit はQR分解で最小二乗問題を解く。
// ランク落ちした入力は ErrSingularMatrix を包んだ ModelError になる。
func (lr *LinearRegression) Fit(X mat.Matrix, y mat.Vector) error {
	const op = "LinearRegression.Fit"

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y.Len() != r {
		return errors.NewDimensionError(op, r, y.Len(), 0)
	}
	if r <= c {
		return errors.NewModelError(op, fmt.Sprintf("%d rows cannot determine %d coefficients and an intercept", r, c), errors.ErrSingularMatrix)
	}

	design := withIntercept(X)

	var svd mat.SVD
	if !svd.Factorize(design, mat.SVDNone) {
		return errors.NewModelError(op, "SVD factorization failed", errors.ErrSingularMatrix)
	}
	lr.Singular = svd.Values(nil)
	tol := float64(max(r, c+1)) * 0x1p-52 * lr.Singular[0]
	lr.Rank = 0
	for _, s := range lr.Singular {
		if s > tol {
			lr.Rank++
		}
	}
	if lr.Rank < c+1 {
		return errors.NewModelError(op, fmt.Sprintf("design matrix rank %d < %d", lr.Rank, c+1), errors.ErrSingularMatrix)
	}

	var qr mat.QR
	qr.Factorize(design)
	if qr.Cond() > maxCondition {
		return errors.NewModelError(op, "ill-conditioned design matrix", errors.ErrSingularMatrix)
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return errors.NewModelError(op, "least squares solve failed", errors.Wrap(errors.ErrSingularMatrix, err.Error()))
	}

	lr.intercept = beta.AtVec(0)
	lr.weights = mat.NewVecDense(c, nil)
	lr.weights.CopyVec(beta.SliceVec(1, c+1))

	lr.SetDimensions(c, r)
	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if err := lr.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := lr.RequireFeatures("LinearRegression.Predict", c); err != nil {
		return nil, err
	}
	return predictLinear(X, lr.weights, lr.intercept), nil
}

// predictLinear は y = X * weights + intercept を計算する
func predictLinear(X mat.Matrix, weights mat.Vector, intercept float64) *mat.VecDense {
	r, c := X.Dims()
	predictions := mat.NewVecDense(r, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * weights.AtVec(j)
			}
			predictions.SetVec(i, pred)
		}
	})
	return predictions
}

// Coef は学習された係数を返す
func (lr *LinearRegression) Coef() []float64 {
	if lr.weights == nil {
		return nil
	}
	return append([]float64(nil), lr.weights.RawVector().Data...)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept
}
