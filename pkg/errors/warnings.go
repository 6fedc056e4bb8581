package errors

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// 警告の出力先。pkg/log が SetZerologWarnFunc で登録すると、そちらが優先されます。
var (
	warningMutex    sync.Mutex
	warningHandler  func(w error)
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。nil で警告を破棄します。
//
// 例:
//
//	var got []error
//	errors.SetWarningHandler(func(w error) { got = append(got, w) })
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc は構造化ログへの警告出力関数を設定します（循環importを避けるため）。
// nil を渡すと SetWarningHandler のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を通知します。学習は中断されません。
// 複数のグリッドセルから同時に呼ばれても安全です。
func Warn(w error) {
	warningMutex.Lock()
	sink := zerologWarnFunc
	if sink == nil {
		sink = warningHandler
	}
	warningMutex.Unlock()

	if sink != nil {
		sink(w)
	}
}

// ConvergenceWarning は座標降下法が MaxIter に達した場合や、
// ランダムフォレストが一度も分割できなかった場合の警告です。
// グリッドサーチでは該当セルの結果に添付され、探索全体は中断されません。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations", w.Algorithm, w.Iterations)
}

// Code implements Coder.
func (w *ConvergenceWarning) Code() string { return CodeConvergence }

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("code", w.Code())
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}
