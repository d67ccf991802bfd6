package utils

import (
	"io"
	"log/slog"
	"os"
)

const prefix = "[hindsight] "

// Logger is the logging surface the library asks its callers for. The
// encoding core never logs; only the storage layer does.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type slogLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger logs to stderr through slog at the given level.
func NewDefaultLogger(level slog.Level) Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// NewSlogLogger wraps an existing slog logger.
func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogLogger{logger: logger}
}

// NewNopLogger discards everything. Handy default for tests and for callers
// that bring their own observability.
func NewNopLogger() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (d *slogLogger) Debug(msg string, args ...any) {
	d.logger.Debug(prefix+msg, args...)
}

func (d *slogLogger) Info(msg string, args ...any) {
	d.logger.Info(prefix+msg, args...)
}

func (d *slogLogger) Warn(msg string, args ...any) {
	d.logger.Warn(prefix+msg, args...)
}

func (d *slogLogger) Error(msg string, args ...any) {
	d.logger.Error(prefix+msg, args...)
}
