package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Interface is the structured logger handed to every component. Arguments
// after msg are alternating keys and values.
type Interface interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	// Fatalw logs at error level and exits the process.
	Fatalw(msg string, keysAndValues ...any)

	With(keysAndValues ...any) Interface
	Named(name string) Interface
}

type slogAdapter struct {
	l *slog.Logger
}

// NewLogger wraps the process logger configured by Init.
func NewLogger() Interface {
	return NewLoggerWithSlog(Get())
}

func NewLoggerWithSlog(l *slog.Logger) Interface {
	return slogAdapter{l: l}
}

// NewNopLogger returns a logger that drops every record.
func NewNopLogger() Interface {
	return slogAdapter{l: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

func (a slogAdapter) log(level slog.Level, msg string, kv []any) {
	a.l.Log(context.Background(), level, msg, kv...)
}

func (a slogAdapter) Debugw(msg string, kv ...any) { a.log(slog.LevelDebug, msg, kv) }
func (a slogAdapter) Infow(msg string, kv ...any)  { a.log(slog.LevelInfo, msg, kv) }
func (a slogAdapter) Warnw(msg string, kv ...any)  { a.log(slog.LevelWarn, msg, kv) }
func (a slogAdapter) Errorw(msg string, kv ...any) { a.log(slog.LevelError, msg, kv) }

func (a slogAdapter) Fatalw(msg string, kv ...any) {
	a.log(slog.LevelError, msg, kv)
	os.Exit(1)
}

func (a slogAdapter) With(kv ...any) Interface {
	return slogAdapter{l: a.l.With(kv...)}
}

func (a slogAdapter) Named(name string) Interface {
	return slogAdapter{l: a.l.With("logger", name)}
}
