// Package observability provides structured logging for swfplayer.
package observability

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jmylchreest/swfplayer/internal/config"
	"github.com/m-mizutani/masq"
)

// sensitiveNames are the credential-shaped field and query-parameter names
// scrubbed from log output. Movie and data load URLs routinely carry these.
var sensitiveNames = []string{"password", "secret", "token", "apikey", "api_key", "credential"}

// sensitiveParamPattern matches any sensitive name used as a URL query
// parameter, capturing through to the next separator.
var sensitiveParamPattern = regexp.MustCompile(
	`(?i)(` + strings.Join(sensitiveNames, "|") + `)=([^&\s"']+)`)

// GlobalLogLevel is the shared log level that can be changed at runtime.
var GlobalLogLevel = &slog.LevelVar{}

// levelNames maps configuration strings to slog levels. Trace sits below
// debug; slog has no native level for it.
var levelNames = map[string]slog.Level{
	"trace": slog.LevelDebug - 4,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger creates a new slog.Logger based on the provided configuration.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// newFieldRedactor builds the masq redactor covering every sensitive name in
// both lower-case and exported-field spellings.
func newFieldRedactor() func(groups []string, a slog.Attr) slog.Attr {
	opts := make([]masq.Option, 0, 2*len(sensitiveNames))
	for _, name := range sensitiveNames {
		opts = append(opts,
			masq.WithFieldName(name),
			masq.WithFieldName(strings.ToUpper(name[:1])+name[1:]),
		)
	}
	return masq.New(opts...)
}

// NewLoggerWithWriter creates a new slog.Logger that writes to the provided
// writer. Sensitive fields and URL query parameters are redacted, and the
// logger follows GlobalLogLevel for runtime level changes.
func NewLoggerWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	GlobalLogLevel.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level:       GlobalLogLevel,
		AddSource:   cfg.AddSource,
		ReplaceAttr: newAttrReplacer(cfg.TimeFormat),
	}

	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newAttrReplacer chains the three per-attribute rewrites: field redaction,
// URL parameter scrubbing inside string values, and the optional time
// format.
func newAttrReplacer(timeFormat string) func(groups []string, a slog.Attr) slog.Attr {
	redactFields := newFieldRedactor()

	return func(groups []string, a slog.Attr) slog.Attr {
		a = redactFields(groups, a)

		if a.Value.Kind() == slog.KindString {
			scrubbed := sensitiveParamPattern.ReplaceAllString(a.Value.String(), "$1=[REDACTED]")
			a = slog.String(a.Key, scrubbed)
		}

		if timeFormat != "" && a.Key == slog.TimeKey {
			if t, ok := a.Value.Any().(time.Time); ok {
				a = slog.String(slog.TimeKey, t.Format(timeFormat))
			}
		}
		return a
	}
}

// parseLevel converts a string log level to slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	if l, ok := levelNames[level]; ok {
		return l
	}
	return slog.LevelInfo
}

// SetLogLevel changes the global log level at runtime.
func SetLogLevel(level string) {
	GlobalLogLevel.Set(parseLevel(level))
}

// WithComponent returns a logger whose records carry the component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
