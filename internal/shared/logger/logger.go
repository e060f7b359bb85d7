package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/abengolea/heartlink-sub000/internal/shared/config"
)

// Logger is the process-wide slog logger set by Init.
var Logger *slog.Logger

// redactedKeys are attribute keys whose values never reach the output.
var redactedKeys = map[string]struct{}{
	"authorization":  {},
	"access_token":   {},
	"password":       {},
	"smtp_password":  {},
	"webhook_secret": {},
	"cron_secret":    {},
	"token":          {},
}

// Init configures the process-wide logger. mode is the server mode; in
// "debug" mode source locations are attached to every level.
func Init(cfg *config.LoggerConfig, mode string) error {
	writer, err := openWriter(cfg.OutputPath)
	if err != nil {
		return err
	}

	// warn and error carry the source location unless debugging
	showSourceLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if mode == "debug" {
		showSourceLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	}

	Logger = slog.New(NewConditionalSourceHandler(newHandler(cfg.Format, writer, parseLevel(cfg.Level)), showSourceLevels...))
	slog.SetDefault(Logger)

	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func openWriter(path string) (io.Writer, error) {
	switch strings.ToLower(path) {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	}
}

// newHandler returns a JSON handler for "json" and a tint console handler
// for anything else.
func newHandler(format string, w io.Writer, level slog.Leveler) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: redactAttr,
		})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(w),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a = redactAttr(groups, a)
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	})
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok && a.Value.String() != "" {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Get returns the process logger, building a console logger when Init has
// not run (tests and early startup).
func Get() *slog.Logger {
	if Logger == nil {
		Logger = slog.New(NewConditionalSourceHandler(
			newHandler("console", os.Stdout, slog.LevelInfo),
			slog.LevelWarn, slog.LevelError,
		))
		slog.SetDefault(Logger)
	}
	return Logger
}

func Sync() error {
	return nil
}
