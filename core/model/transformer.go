package model

import "gonum.org/v1/gonum/mat"

// Transformer learns a column-wise mapping from one matrix and applies it to
// others with the same columns, such as the scaler used inside the elastic net
// or the dependent-column dropper.
type Transformer interface {
	Fit(X mat.Matrix) error
	// Transform は Fit で学習した変換を X に適用する
	Transform(X mat.Matrix) (*mat.Dense, error)
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}
