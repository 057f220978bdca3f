package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, Config{Level: InfoLevel, Format: TextFormat}, DefaultConfig())
}

func TestSetupWithOutputFormats(t *testing.T) {
	var buf bytes.Buffer

	logger := SetupWithOutput(Config{Level: InfoLevel, Format: TextFormat}, &buf)
	require.NotNil(t, logger)
	logger.Info("test message", "key", "value")
	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), "key=value")

	buf.Reset()
	logger = SetupWithOutput(Config{Level: InfoLevel, Format: JSONFormat}, &buf)
	logger.Info("test message", "key", "value")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    Level
		visible  []string
		filtered []string
	}{
		{DebugLevel, []string{"debug message", "info message", "warn message", "error message"}, nil},
		{InfoLevel, []string{"info message", "warn message", "error message"}, []string{"debug message"}},
		{WarnLevel, []string{"warn message", "error message"}, []string{"debug message", "info message"}},
		{ErrorLevel, []string{"error message"}, []string{"info message", "warn message"}},
		{Level("bogus"), []string{"info message"}, []string{"debug message"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			var buf bytes.Buffer
			logger := SetupWithOutput(Config{Level: tt.level, Format: TextFormat}, &buf)

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")
			logger.Error("error message")

			for _, s := range tt.visible {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.filtered {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithOutput(Config{Level: DebugLevel, Format: TextFormat}, &buf)

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("context logger test")
	assert.Contains(t, buf.String(), "context logger test")

	buf.Reset()
	WithAssistant(logger, "agent-1").Info("assistant context test")
	assert.Contains(t, buf.String(), "assistant context test")
	assert.Contains(t, buf.String(), "assistant_id=agent-1")

	buf.Reset()
	WithRun(WithAssistant(logger, "agent-1"), "run-42").Info("run context test")
	assert.Contains(t, buf.String(), "assistant_id=agent-1")
	assert.Contains(t, buf.String(), "run_id=run-42")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestHelperFunctions(t *testing.T) {
	t.Run("Global helper functions", func(t *testing.T) {
		var buf bytes.Buffer
		previous := slog.Default()
		defer slog.SetDefault(previous)
		slog.SetDefault(SetupWithOutput(Config{Level: DebugLevel, Format: TextFormat}, &buf))

		Debug("debug global")
		Info("info global")
		Warn("warn global")
		Error("error global")

		for _, s := range []string{"debug global", "info global", "warn global", "error global"} {
			assert.Contains(t, buf.String(), s)
		}
	})

	t.Run("Context helper functions", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := WithLogger(context.Background(), SetupWithOutput(Config{Level: DebugLevel, Format: TextFormat}, &buf))

		DebugContext(ctx, "debug context")
		InfoContext(ctx, "info context")
		WarnContext(ctx, "warn context")
		ErrorContext(ctx, "error context")

		for _, s := range []string{"debug context", "info context", "warn context", "error context"} {
			assert.Contains(t, buf.String(), s)
		}
	})
}
