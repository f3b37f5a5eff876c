package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, data string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(data), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lineloom.log")

	logger, err := NewLogger(path, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Debug("debug message", "key", "value")
	logger.Info("info message")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	entries := decodeLines(t, string(content))
	if len(entries) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(entries))
	}
	if entries[0]["key"] != "value" {
		t.Errorf("expected key=value, got %v", entries[0]["key"])
	}
}

func TestNewLogger_Stderr(t *testing.T) {
	logger, err := NewLogger("", LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger.file != nil {
		t.Error("expected no file for stderr logger")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close on stderr logger: %v", err)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown")

	entries := decodeLines(t, buf.String())
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries at WARN, got %d", len(entries))
	}
}

func TestWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, LevelDebug)

	child := base.WithRun("line-1").WithPhase("improve").With("round", 3)
	child.Info("applied move", "kind", "transfer")
	base.Info("plain")

	entries := decodeLines(t, buf.String())
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["run_id"] != "line-1" || entries[0]["phase"] != "improve" {
		t.Errorf("child attributes missing: %v", entries[0])
	}
	if entries[0]["round"] != float64(3) || entries[0]["kind"] != "transfer" {
		t.Errorf("expected round and kind attributes, got %v", entries[0])
	}
	if _, ok := entries[1]["phase"]; ok {
		t.Error("parent logger must not inherit child attributes")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Error("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
