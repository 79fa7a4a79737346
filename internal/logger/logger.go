package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"edulearn/internal/config"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

var level = new(slog.LevelVar)

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func openOutput(path string) (io.Writer, error) {
	switch strings.ToLower(path) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log output: %w", err)
		}
		return f, nil
	}
}

// New builds the process logger. Source locations are attached to warn and
// error records, or to every record when mode is debug.
func New(cfg config.LoggerConfig, mode string, w io.Writer) *slog.Logger {
	level.Set(ParseLevel(cfg.Level))

	sourceLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if mode == "debug" {
		sourceLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	}

	var base slog.Handler
	if cfg.Format == "json" {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		base = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			NoColor:    !isTerminal(w),
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if err, ok := a.Value.Any().(error); ok && a.Key == "err" {
					return tint.Err(err)
				}
				return a
			},
		})
	}
	return slog.New(NewConditionalSourceHandler(base, sourceLevels...))
}

// Init builds the logger from config and installs it as the slog default.
func Init(cfg config.LoggerConfig, mode string) (*slog.Logger, error) {
	w, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	l := New(cfg, mode, w)
	slog.SetDefault(l)
	return l, nil
}

func SetLevel(l slog.Level) {
	level.Set(l)
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
