package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/YuminosukeSato/hedonic/pkg/errors"
)

func TestTestLoggerCapturesLevelsAndFields(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Debug("debug message", "key1", "value1", "number", 42)
	logger.Info("info message", OperationKey, OperationFit)
	logger.Warn("warning message", ErrorCodeKey, ErrorConvergence)
	logger.Error("error message", "error", fmt.Errorf("boom"))

	require.NotEmpty(t, buffer.String())
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, logger.ContainsMessage(msg), msg)
	}
	assert.True(t, logger.ContainsField("key1", "value1"))
	assert.True(t, logger.ContainsField("number", 42.0))
	assert.True(t, logger.ContainsField("error", "boom"))
}

func TestTestLoggerWith(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	ctxLogger := logger.With(ModelNameKey, "ElasticNet", TransformKey, "log")
	ctxLogger.Info("cell evaluated", AlphaKey, 0.5, R2ScoreKey, 0.8)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ElasticNet", entries[0][ModelNameKey])
	assert.Equal(t, "log", entries[0][TransformKey])
	assert.Equal(t, 0.5, entries[0][AlphaKey])
}

func TestTestLoggerEnabled(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	assert.True(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelError))
	assert.False(t, logger.Enabled(ctx, LevelDebug))

	logger.Debug("hidden")
	logger.Info("shown")
	assert.False(t, logger.ContainsMessage("hidden"))
	assert.True(t, logger.ContainsMessage("shown"))
}

func TestTestLoggerCountsAndCodes(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	logger.Warn("cell failed", ErrAttrKey, herrors.NewInvalidArgumentError("split", "fraction", "bad", 2))
	logger.Warn("rank deficient", DroppedColumnsKey, []string{"x1_copy"})
	logger.Info("done")

	assert.Equal(t, 2, logger.Count(LevelWarn))
	assert.Equal(t, 1, logger.Count(LevelInfo))
	assert.True(t, logger.HasCode(ErrorInvalidArgument))
	assert.False(t, logger.HasCode(ErrorDomain))

	logger.Clear()
	assert.Equal(t, 0, logger.Count(LevelWarn))
}

func TestTestLoggerConcurrent(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				logger.With(WorkersKey, id).Info("cell", CellKey, j)
			}
		}(g)
	}
	wg.Wait()

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("dropped")
	logger.With(ModelNameKey, "OLS").Info("fitted", SamplesKey, 65, FeaturesKey, 5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "fitted", entry["message"])
	assert.Equal(t, "OLS", entry[ModelNameKey])
	assert.Equal(t, 65.0, entry[SamplesKey])

	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), LevelWarn))
}

func TestZerologLoggerMarshalsStructuredErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	err := herrors.NewDomainError("LogTarget", 2, -1)
	logger.Error("log branch skipped", ErrAttrKey, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Contains(t, entry["error"], "outside the function domain")

	detail, ok := entry["error.detail"].(map[string]interface{})
	require.True(t, ok, "structured error detail expected")
	assert.Equal(t, herrors.CodeDomain, detail["code"])
	assert.Equal(t, 2.0, detail["row"])
	assert.Equal(t, herrors.CodeDomain, entry[ErrorCodeKey])
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	prev := GetLogger()
	defer func() {
		SetLogger(prev)
		herrors.SetZerologWarnFunc(nil)
	}()

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "warn"))

	herrors.Warn(herrors.NewConvergenceWarning("ElasticNet", 10, "lambda path"))
	assert.Contains(t, buf.String(), "ElasticNet failed to converge")
	assert.Contains(t, buf.String(), herrors.CodeConvergence)

	assert.Error(t, SetupLogger(&buf, "verbose"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "WARN", LevelWarn.String())
}
