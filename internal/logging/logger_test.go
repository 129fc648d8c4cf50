package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "castsync.log")

	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hello", String(FieldFeed, "myfeed"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "hello") || !strings.Contains(out, "feed=myfeed") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestComponentPrefix(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := New(Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	NewComponentLogger(logger, "scheduler").Info("started")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[scheduler]") {
		t.Fatalf("component prefix missing: %q", string(data))
	}
}

func TestJSONFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := New(Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("event", Int("count", 3))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, fragment := range []string{`"msg":"event"`, `"count":3`, `"level":"info"`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %s in %q", fragment, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
