package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// checkPair は入力ベクトルが空でなく、長さが一致することを検証する
func checkPair(op string, yTrue, yPred mat.Vector) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// SSR は残差平方和 Σ(yTrue - yPred)² を計算する
func SSR(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("SSR", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	ssr, err := SSR(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return ssr / float64(yTrue.Len()), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// SST は全変動 Σ(y - mean(y))² と平均を返す
func SST(y mat.Vector) (sst, mean float64) {
	n := y.Len()
	if n == 0 {
		return 0, 0
	}
	for i := 0; i < n; i++ {
		mean += y.AtVec(i)
	}
	mean /= float64(n)
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - mean
		sst += d * d
	}
	return sst, mean
}

// R2Score は決定係数 R² = 1 - SSR/SST を計算する。
// 値はクランプしない（平均予測より悪ければ負になる）。
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	ssr, err := SSR(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	sst, _ := SST(yTrue)
	if sst == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - ssr/sst, nil
}
