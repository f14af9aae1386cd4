// Package log wraps log/slog with a leveled, format-switchable logger
// shared by every vitae component.
package log

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/vitae-dev/vitae/internal/config"
)

type contextKey string

// RequestIDKey carries the per-request identifier through handler contexts.
const RequestIDKey contextKey = "request_id"

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// Logger is a thin wrapper around slog.Logger that knows how to pull
// request-scoped attributes out of a context.
type Logger struct {
	slog *slog.Logger
}

// NewLogger builds a Logger from the application configuration. The text
// format uses the colorized terminal handler; everything else falls back to
// line-delimited JSON on stderr.
func NewLogger(cfg *config.AppConfig) *Logger {
	level := ParseLevel(cfg.LogLevel())

	var handler slog.Handler
	switch cfg.LogFormat() {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		handler = NewTerminalHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return &Logger{slog: slog.New(handler)}
}

// NewTestLogger returns a logger that discards everything below ERROR,
// keeping test output quiet without losing genuine failures.
func NewTestLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
	return &Logger{slog: slog.New(handler)}
}

// ParseLevel maps a configuration string onto a slog level. Unknown values
// default to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the process-wide logger, creating a plain INFO terminal
// logger on first use.
func Default() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		handler := NewTerminalHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
		defaultLogger = &Logger{slog: slog.New(handler)}
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// With returns a logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// WithContext attaches request-scoped attributes found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	out := l
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		out = out.With("request_id", id)
	}
	return out
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Slog exposes the underlying slog.Logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger { return l.slog }
