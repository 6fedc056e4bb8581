package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	herrors "github.com/YuminosukeSato/hedonic/pkg/errors"
)

// TestLogger keeps JSON log lines in memory so tests can assert on what a
// run reported. Errors are stored as their message plus error.code, like the
// zerolog backend writes them. Loggers derived with With share the buffer.
// Safe for concurrent use.
type TestLogger struct {
	mu     *sync.Mutex
	buf    *bytes.Buffer
	level  Level
	fields map[string]interface{}
}

// NewTestLogger returns a logger that drops records below level, and the
// buffer it writes to.
//
//	logger, _ := log.NewTestLogger(log.LevelDebug)
//	log.SetLogger(logger)
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestLogger{mu: &sync.Mutex{}, buf: buf, level: level, fields: map[string]interface{}{}}, buf
}

// Debug implements Logger.
func (t *TestLogger) Debug(msg string, fields ...any) { t.write(LevelDebug, msg, fields) }

// Info implements Logger.
func (t *TestLogger) Info(msg string, fields ...any) { t.write(LevelInfo, msg, fields) }

// Warn implements Logger.
func (t *TestLogger) Warn(msg string, fields ...any) { t.write(LevelWarn, msg, fields) }

// Error implements Logger.
func (t *TestLogger) Error(msg string, fields ...any) { t.write(LevelError, msg, fields) }

// With implements Logger.
func (t *TestLogger) With(fields ...any) Logger {
	child := &TestLogger{mu: t.mu, buf: t.buf, level: t.level, fields: make(map[string]interface{}, len(t.fields))}
	for k, v := range t.fields {
		child.fields[k] = v
	}
	putFields(child.fields, fields)
	return child
}

// Enabled implements Logger.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool { return level >= t.level }

func putFields(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		err, ok := fields[i+1].(error)
		if !ok {
			dst[key] = fields[i+1]
			continue
		}
		dst[key] = err.Error()
		if code := herrors.CodeOf(err); code != "" {
			dst[ErrorCodeKey] = code
		}
	}
}

func (t *TestLogger) write(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	entry := make(map[string]interface{}, len(t.fields)+len(fields)/2+2)
	for k, v := range t.fields {
		entry[k] = v
	}
	putFields(entry, fields)
	entry["level"] = level.String()
	entry["message"] = msg

	line, err := json.Marshal(entry)
	if err != nil {
		line, _ = json.Marshal(map[string]string{"level": level.String(), "message": msg, "marshal_error": err.Error()})
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(line)
	t.buf.WriteByte('\n')
}

// String returns everything captured so far.
func (t *TestLogger) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

// GetLogEntries decodes the captured lines. JSON numbers come back as float64.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(t.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured line contains s.
func (t *TestLogger) ContainsMessage(s string) bool {
	return strings.Contains(t.String(), s)
}

// ContainsField reports whether some entry has key set to value.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if v, ok := e[key]; ok && fmt.Sprint(v) == fmt.Sprint(value) {
			return true
		}
	}
	return false
}

// Count returns the number of entries logged at level.
func (t *TestLogger) Count(level Level) int {
	entries, err := t.GetLogEntries()
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e["level"] == level.String() {
			n++
		}
	}
	return n
}

// HasCode reports whether an error with the given code was logged.
func (t *TestLogger) HasCode(code string) bool {
	return t.ContainsField(ErrorCodeKey, code)
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
}
