package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures NewLogger.
type LogOptions struct {
	Level  string    // debug, info, warn, error; default info
	Debug  bool      // forces debug level
	File   string    // rotating log file; empty logs to Writer
	Writer io.Writer // default os.Stderr
}

// NewLogger builds a text slog.Logger. The returned closer releases the log
// file, if any, and must be called on exit.
func NewLogger(opts LogOptions) (*slog.Logger, io.Closer) {
	level := ParseLevel(opts.Level)
	if opts.Debug {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = opts.Writer
		closer io.Closer = io.NopCloser(nil)
	)
	if w == nil {
		w = os.Stderr
	}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
		}
		w, closer = lj, lj
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closer
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
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
