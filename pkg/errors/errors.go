// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
//
// 型付きエラーは cockroachdb/errors でスタックトレースを付与され、
// zerolog.LogObjectMarshaler を実装します。Code はログの error.code に出力されます。
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Error codes, also used as the error.code log attribute.
const (
	CodeNotFitted         = "NOT_FITTED"
	CodeDimensionMismatch = "DIMENSION_MISMATCH"
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeDomain            = "DOMAIN_ERROR"
	CodeValue             = "VALUE_ERROR"
	CodeModel             = "MODEL_ERROR"
	CodeNumerical         = "NUMERICAL_INSTABILITY"
	CodeConvergence       = "CONVERGENCE_FAILURE"
	CodePanic             = "PANIC"
)

// Coder is implemented by every typed error of this package.
type Coder interface {
	Code() string
}

// CodeOf returns the code of the first typed error in err's chain, or "".
func CodeOf(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// NotFittedError は未学習のモデルで Predict や Transform を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("hedonic: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// Code implements Coder.
func (e *NotFittedError) Code() string { return CodeNotFitted }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).Str("method", e.Method).Str("code", e.Code())
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は行数または特徴量数が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	// Axis は 0 が行、1 が特徴量（列）です。
	Axis int
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("hedonic: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// Code implements Coder.
func (e *DimensionError) Code() string { return CodeDimensionMismatch }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("axis", e.axisName()).
		Str("code", e.Code())
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// InvalidArgumentError は学習開始前に検出される致命的な入力エラーです。
// 分割比率の不正、空のグリッド、行数の不一致、ホールドアウトが小さすぎる場合など。
type InvalidArgumentError struct {
	Op        string
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("hedonic: %s: invalid argument '%s': %s (got: %v)", e.Op, e.ParamName, e.Reason, e.Value)
}

// Code implements Coder.
func (e *InvalidArgumentError) Code() string { return CodeInvalidArgument }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidArgumentError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("code", e.Code())
}

// NewInvalidArgumentError は新しいInvalidArgumentErrorを作成し、スタックトレースを付与します。
func NewInvalidArgumentError(op, param, reason string, value interface{}) error {
	return errors.WithStack(&InvalidArgumentError{Op: op, ParamName: param, Reason: reason, Value: value})
}

// DomainError は関数の定義域外の値が渡された場合のエラーです。
// 0以下の販売価格に対数変換を適用した場合など。対数目的変数の枝だけが中止されます。
type DomainError struct {
	Op    string
	Index int
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("hedonic: %s: value %g at row %d is outside the function domain", e.Op, e.Value, e.Index)
}

// Code implements Coder.
func (e *DomainError) Code() string { return CodeDomain }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DomainError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).Int("row", e.Index).Float64("value", e.Value).Str("code", e.Code())
}

// NewDomainError は新しいDomainErrorを作成し、スタックトレースを付与します。
func NewDomainError(op string, index int, value float64) error {
	return errors.WithStack(&DomainError{Op: op, Index: index, Value: value})
}

// ValueError は表のセルなど、入力値そのものが解釈できない場合のエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("hedonic: %s: %s", e.Op, e.Message)
}

// Code implements Coder.
func (e *ValueError) Code() string { return CodeValue }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).Str("message", e.Message).Str("code", e.Code())
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError はモデルの学習・選択に失敗した場合のエラーです。
// Err に ErrSingularMatrix などの原因を保持します。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hedonic: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("hedonic: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Code implements Coder.
func (e *ModelError) Code() string { return CodeModel }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).Str("kind", e.Kind).Str("code", e.Code())
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// 共通エラー変数
var (
	// ErrEmptyData は行のない表や行列が渡された場合のエラーです。
	ErrEmptyData = errors.New("empty data")

	// ErrSingularMatrix は計画行列がフルランクでない場合のエラーです。
	ErrSingularMatrix = errors.New("singular matrix")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Wrap annotates err with a message and a stack trace.
func Wrap(err error, message string) error { return errors.Wrap(err, message) }

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error { return errors.New(message) }

// Newf is New with a format string.
func Newf(format string, args ...interface{}) error { return errors.Newf(format, args...) }

// WithStack attaches a stack trace to err.
func WithStack(err error) error { return errors.WithStack(err) }
