package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	herrors "github.com/YuminosukeSato/hedonic/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = StacktraceKey
)

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewZerologLogger(os.Stderr, LevelInfo)
)

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger. Passing nil installs a no-op logger.
func SetLogger(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if l == nil {
		l = NewZerologLogger(io.Discard, LevelError)
	}
	globalLogger = l
}

// SetupLogger installs a zerolog JSON logger writing to w at the given level
// and routes warnings raised through pkg/errors to it.
func SetupLogger(w io.Writer, loglevel string) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}
	logger := NewZerologLogger(w, level)
	SetLogger(logger)
	herrors.SetZerologWarnFunc(func(warning error) {
		logger.Warn(warning.Error(), ErrAttrKey, warning)
	})
	return nil
}

// ParseLevel converts "debug", "info", "warn" or "error" into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, herrors.NewInvalidArgumentError("log.ParseLevel", "level", "unknown log level", level)
	}
}

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a JSON logger writing to w.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) { emit(z.zl.Debug(), msg, fields) }

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) { emit(z.zl.Info(), msg, fields) }

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) { emit(z.zl.Warn(), msg, fields) }

// Error implements Logger.Error.
func (z *ZerologLogger) Error(msg string, fields ...any) { emit(z.zl.Error(), msg, fields) }

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			ctx = ctx.AnErr(key, err)
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

func emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
			if code := herrors.CodeOf(v); code != "" {
				ev = ev.Str(ErrorCodeKey, code)
			}
			var m zerolog.LogObjectMarshaler
			if errors.As(v, &m) {
				ev = ev.Object(key+".detail", m)
			}
			if st := extractStacktrace(v); st != "" {
				ev = ev.Str(StacktraceAttrKey, st)
			}
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

func extractStacktrace(err error) string {
	for _, payload := range errors.GetAllSafeDetails(err) {
		for _, detail := range payload.SafeDetails {
			if detail != "" {
				return detail
			}
		}
	}
	return ""
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
