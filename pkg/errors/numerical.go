package errors

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NumericalInstabilityError は行列やベクトルに NaN や ±Inf が含まれる場合のエラーです。
// Col はベクトルの場合 -1 です。
type NumericalInstabilityError struct {
	Operation string
	Row       int
	Col       int
	Value     float64
}

func (e *NumericalInstabilityError) Error() string {
	if e.Col < 0 {
		return fmt.Sprintf("hedonic: %s: non-finite value %g at row %d", e.Operation, e.Value, e.Row)
	}
	return fmt.Sprintf("hedonic: %s: non-finite value %g at row %d, column %d", e.Operation, e.Value, e.Row, e.Col)
}

// Code implements Coder.
func (e *NumericalInstabilityError) Code() string { return CodeNumerical }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Int("row", e.Row).
		Int("col", e.Col).
		Float64("value", e.Value).
		Str("code", e.Code())
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, row, col int, value float64) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Row: row, Col: col, Value: value})
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// CheckMatrix は最初の非有限値の位置を報告します。
func CheckMatrix(operation string, m interface {
	Dims() (int, int)
	At(int, int) float64
}) error {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); !finite(v) {
				return NewNumericalInstabilityError(operation, i, j, v)
			}
		}
	}
	return nil
}

// CheckVector は最初の非有限値の位置を報告します。
func CheckVector(operation string, v interface {
	Len() int
	AtVec(int) float64
}) error {
	for i := 0; i < v.Len(); i++ {
		if x := v.AtVec(i); !finite(x) {
			return NewNumericalInstabilityError(operation, i, -1, x)
		}
	}
	return nil
}
