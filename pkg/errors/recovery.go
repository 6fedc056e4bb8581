package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// PanicError は回復した panic を表します。グリッドセルの panic はこのエラーとして
// そのセルの結果に記録され、探索全体は継続します。
type PanicError struct {
	Operation  string
	PanicValue interface{}
	StackTrace string
	// Cause is the error the function had already set when it panicked.
	Cause error
}

func (e *PanicError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("panic in %s: %v (original error: %v)", e.Operation, e.PanicValue, e.Cause)
	}
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String はスタックトレースを含む詳細を返します。
func (e *PanicError) String() string {
	return fmt.Sprintf("%s\nStack trace:\n%s", e.Error(), e.StackTrace)
}

// Unwrap returns Cause, or the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	if err, ok := e.PanicValue.(error); ok {
		return err
	}
	return nil
}

// Code implements Coder.
func (e *PanicError) Code() string { return CodePanic }

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic", fmt.Sprint(e.PanicValue)).
		Str("code", e.Code())
}

// NewPanicError は panic 値と現在のスタックから PanicError を作成します。
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{Operation: operation, PanicValue: panicValue, StackTrace: string(debug.Stack())}
}

// Recover は defer で使い、panic を *err に変換します。
// 既存のエラーがある場合は、それを原因として PanicError に残します。
//
//	func fit() (err error) {
//	    defer errors.Recover(&err, "forest.Fit")
//	    ...
//	}
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	panicErr := NewPanicError(operation, r)
	panicErr.Cause = *err
	*err = panicErr
}

// SafeExecute は fn を実行し、panic をエラーとして返します。
//
//	err := errors.SafeExecute("search cell OLS/raw", func() error {
//	    return model.Fit(X, y)
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
