package core

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the structured logger shared by the editor, the CLI and the
// validators.
type Logger interface {
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Debug(msg string, fields ...any)
	With(fields ...any) Logger
}

type slogLogger struct {
	logger *slog.Logger
}

// NewLogger returns a JSON logger on stderr at the given level.
func NewLogger(level string) Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo returns a JSON logger writing to w. Unknown levels fall back
// to info.
func NewLoggerTo(w io.Writer, level string) Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &slogLogger{logger: slog.New(handler)}
}

// ParseLevel maps debug, info, warn and error to slog levels.
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

func (l *slogLogger) Info(msg string, fields ...any)  { l.logger.Info(msg, fields...) }
func (l *slogLogger) Warn(msg string, fields ...any)  { l.logger.Warn(msg, fields...) }
func (l *slogLogger) Error(msg string, fields ...any) { l.logger.Error(msg, fields...) }
func (l *slogLogger) Debug(msg string, fields ...any) { l.logger.Debug(msg, fields...) }

func (l *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: l.logger.With(fields...)}
}

type nopLogger struct{}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}
func (n nopLogger) With(...any) Logger { return n }
