package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/jmylchreest/swfplayer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level string) *slog.Logger {
	return NewLoggerWithWriter(config.LoggingConfig{Level: level, Format: "json"}, buf)
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestNewLoggerWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "info")

	logger.Info("movie loaded", slog.String("url", "http://x/y.swf"))

	entry := lastLine(t, &buf)
	assert.Equal(t, "movie loaded", entry["msg"])
	assert.Equal(t, "http://x/y.swf", entry["url"])
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "warn")

	logger.Info("suppressed")
	assert.Empty(t, buf.Bytes())

	logger.Warn("surfaced")
	entry := lastLine(t, &buf)
	assert.Equal(t, "surfaced", entry["msg"])
}

func TestNewLoggerWithWriter_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "info")

	logger.Info("auth", slog.String("token", "super-secret-token"))

	entry := lastLine(t, &buf)
	assert.NotEqual(t, "super-secret-token", entry["token"])
	assert.NotContains(t, buf.String(), "super-secret-token")
}

func TestNewLoggerWithWriter_RedactsURLParams(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "info")

	logger.Info("fetch", slog.String("url", "http://x/load?user=a&password=hunter2"))

	entry := lastLine(t, &buf)
	assert.Equal(t, "http://x/load?user=a&password=[REDACTED]", entry["url"])
}

func TestSetLogLevel_RuntimeChange(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, "info")

	logger.Debug("hidden")
	assert.Empty(t, buf.Bytes())

	SetLogLevel("debug")
	defer SetLogLevel("info")

	logger.Debug("visible")
	entry := lastLine(t, &buf)
	assert.Equal(t, "visible", entry["msg"])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(jsonLogger(&buf, "info"), "loader")

	logger.Info("registered")
	entry := lastLine(t, &buf)
	assert.Equal(t, "loader", entry["component"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", slog.LevelDebug - 4},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}
