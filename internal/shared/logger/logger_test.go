package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionalSourceHandler_AddsSourceForConfiguredLevels(t *testing.T) {
	levels := []slog.Level{slog.LevelWarn, slog.LevelError}

	cases := map[slog.Level]bool{
		slog.LevelDebug: false,
		slog.LevelInfo:  false,
		slog.LevelWarn:  true,
		slog.LevelError: true,
	}

	for level, want := range cases {
		t.Run(level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			log := slog.New(NewConditionalSourceHandler(base, levels...))

			log.Log(context.Background(), level, "sweep finished")

			assert.Equal(t, want, bytes.Contains(buf.Bytes(), []byte("source=")), buf.String())
		})
	}
}

func TestConditionalSourceHandler_KeepsAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, nil)
	log := slog.New(NewConditionalSourceHandler(base, slog.LevelError)).
		With("user_id", "u-1").
		WithGroup("payment")

	log.Info("payment applied", "id", "pay-9")

	out := buf.String()
	assert.NotContains(t, out, "source=")
	assert.Contains(t, out, "user_id=u-1")
	assert.Contains(t, out, "payment.id=pay-9")
}

func TestConditionalSourceHandler_DelegatesEnabled(t *testing.T) {
	base := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	h := NewConditionalSourceHandler(base, slog.LevelError)

	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewHandler_JSONRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler("json", &buf, slog.LevelInfo))

	log.Info("webhook received", "webhook_secret", "s3cr3t", "Authorization", "Bearer abc", "payment_id", "pay-1")

	out := buf.String()
	assert.NotContains(t, out, "s3cr3t")
	assert.NotContains(t, out, "Bearer abc")
	assert.Contains(t, out, `"payment_id":"pay-1"`)
	assert.Contains(t, out, "[REDACTED]")
}

func TestNewHandler_ConsoleFormatsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler("console", &buf, slog.LevelInfo))

	log.Error("sweep failed", "error", errors.New("database locked"))

	assert.Contains(t, buf.String(), "database locked")
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNopLogger().With("component", "test").Named("nop")
	assert.NotPanics(t, func() {
		l.Infow("dropped", "k", "v")
		l.Errorw("dropped too")
	})
}
