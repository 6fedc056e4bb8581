// Package model defines the estimator contracts shared by every trainer.
package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that learns from a feature matrix and a target vector.
type Fitter interface {
	// Fit trains the model. X is n×p, y has length n.
	Fit(X mat.Matrix, y mat.Vector) error
}

// Predictor produces one prediction per row of X.
type Predictor interface {
	Predict(X mat.Matrix) (*mat.VecDense, error)
}

// Regressor is the contract a grid cell trains and evaluates.
type Regressor interface {
	Fitter
	Predictor
}

// Named is implemented by regressors that report their family name for logs.
type Named interface {
	Name() string
}
