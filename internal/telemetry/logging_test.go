package telemetry

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_DebugOverride(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, closer := NewLogger(LogOptions{Level: "warn", Debug: true, Writer: &buf})
	defer closer.Close()

	log.Debug("cache hit", "key", "abc")
	if !strings.Contains(buf.String(), "cache hit") {
		t.Errorf("debug record missing: %q", buf.String())
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, closer := NewLogger(LogOptions{Writer: &buf})
	defer closer.Close()

	log.Debug("hidden")
	log.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info record missing")
	}
}

func TestNewLogger_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "linear.log")
	log, closer := NewLogger(LogOptions{File: path})
	log.Info("to file", "n", 1)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
}
