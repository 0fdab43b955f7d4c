// Package logger configures the application slog logger and carries a request scoped logger in the context.
//
// dev and test use tint for coloured, human readable output; staging and prod write JSON.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// LevelNone is above every level used by the application so nothing is logged
const LevelNone = slog.LevelError + 4

// InitLogger creates the application logger, installs it as the slog default and returns it.
func InitLogger(level slog.Level, environment string) *slog.Logger {
	return initLogger(os.Stderr, level, environment)
}

func initLogger(w io.Writer, level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler

	switch environment {
	case "prod", "staging":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    environment == "test",
		})
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// ParseLogLevel converts a LOG_LEVEL value to a slog.Level.
// "none" disables logging; unrecognised values fall back to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none", "off":
		return LevelNone
	}

	// accept slog's own text form, e.g. "ERROR+4" as produced by LevelNone.String()
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err == nil {
		return level
	}
	return slog.LevelInfo
}
