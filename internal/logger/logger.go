package logger

import (
	"io"
	"log/slog"
	"os"
)

type AppLogger struct {
	*slog.Logger
}

// New builds the process logger. Development gets human-readable text at
// debug level, every other environment gets JSON at info level.
func New(environment string) *AppLogger {
	return NewWithWriter(os.Stdout, environment)
}

func NewWithWriter(w io.Writer, environment string) *AppLogger {
	var handler slog.Handler
	if environment == "development" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &AppLogger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *AppLogger {
	return NewWithWriter(io.Discard, "test")
}

func (l *AppLogger) With(args ...any) *AppLogger {
	return &AppLogger{Logger: l.Logger.With(args...)}
}

func (l *AppLogger) Fatal(msg string, err error, args ...any) {
	allArgs := append(args, "error", err)
	l.Error(msg, allArgs...)
	os.Exit(1)
}
