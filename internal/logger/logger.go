// Package logger configures the structured logger used by the CLI.
package logger

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w. Debug enables debug records and
// source locations.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// Init builds a logger with New and installs it as the slog default.
func Init(w io.Writer, debug bool) *slog.Logger {
	l := New(w, debug)
	slog.SetDefault(l)
	l.Debug("structured logging initialized", "level", levelName(debug))
	return l
}

func levelName(debug bool) string {
	if debug {
		return slog.LevelDebug.String()
	}
	return slog.LevelInfo.String()
}
