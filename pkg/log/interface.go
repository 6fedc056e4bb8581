// Package log is the structured logging layer of hedonic.
//
// Logger has the shape of log/slog (alternating key/value fields) and the
// default backend is zerolog writing JSON. Typed errors from pkg/errors are
// logged with their structured detail and error.code. Attribute keys for
// grid cells, splits and scores live in attributes.go.
//
//	logger := log.GetLogger().With(log.ComponentKey, "search")
//	logger.Info("Grid cell evaluated",
//	    log.VariantKey, "ElasticNet/log/alpha=0.2",
//	    log.R2ScoreKey, 0.87,
//	)
package log

import "context"

// Logger is implemented by the zerolog backend and by TestLogger.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	// Warn is for conditions that do not stop a run: a rank-deficient
	// matrix, a non-converged grid cell, a skipped log-target branch.
	Warn(msg string, fields ...any)
	// Error attaches the stack trace of an error passed under ErrAttrKey.
	Error(msg string, fields ...any)
	// With returns a child logger that adds fields to every record.
	With(fields ...any) Logger
	// Enabled reports whether records at level are emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level uses the numeric values of slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
