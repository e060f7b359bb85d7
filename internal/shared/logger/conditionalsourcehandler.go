package logger

import (
	"context"
	"log/slog"
	"runtime"
)

// callerDepth is the number of frames between Handle and the slog.Logger
// method that produced the record.
const callerDepth = 3

type conditionalSourceHandler struct {
	next   slog.Handler
	levels map[slog.Level]struct{}
}

// NewConditionalSourceHandler attaches the caller's source location only to
// records at one of the given levels. The wrapped handler must not set
// AddSource itself.
func NewConditionalSourceHandler(next slog.Handler, levels ...slog.Level) slog.Handler {
	set := make(map[slog.Level]struct{}, len(levels))
	for _, l := range levels {
		set[l] = struct{}{}
	}
	return &conditionalSourceHandler{next: next, levels: set}
}

func (h *conditionalSourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *conditionalSourceHandler) Handle(ctx context.Context, r slog.Record) error {
	if _, ok := h.levels[r.Level]; ok {
		r.AddAttrs(slog.Any(slog.SourceKey, callerSource()))
	}
	return h.next.Handle(ctx, r)
}

func (h *conditionalSourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &conditionalSourceHandler{next: h.next.WithAttrs(attrs), levels: h.levels}
}

func (h *conditionalSourceHandler) WithGroup(name string) slog.Handler {
	return &conditionalSourceHandler{next: h.next.WithGroup(name), levels: h.levels}
}

func callerSource() *slog.Source {
	var pcs [1]uintptr
	runtime.Callers(callerDepth+1, pcs[:])
	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	return &slog.Source{Function: frame.Function, File: frame.File, Line: frame.Line}
}
