package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/hedonic/pkg/errors"
)

// LogTarget returns the natural log of every sale price. Any value that is
// not strictly positive yields a DomainError naming its row.
func LogTarget(y mat.Vector) (*mat.VecDense, error) {
	n := y.Len()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v := y.AtVec(i)
		if !(v > 0) || math.IsInf(v, 1) {
			return nil, errors.NewDomainError("preprocessing.LogTarget", i, v)
		}
		out.SetVec(i, math.Log(v))
	}
	return out, nil
}

// ExpTarget maps log-space values back to prices.
func ExpTarget(y mat.Vector) *mat.VecDense {
	n := y.Len()
	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, math.Exp(y.AtVec(i)))
	}
	return out
}

// Transform names a target transform.
type Transform string

const (
	// Raw leaves the sale price unchanged.
	Raw Transform = "raw"
	// Log models the natural log of the sale price.
	Log Transform = "log"
)

// Inverse maps model outputs in the transform's space back to prices.
func (t Transform) Inverse(pred *mat.VecDense) *mat.VecDense {
	if t == Log {
		return ExpTarget(pred)
	}
	return pred
}
