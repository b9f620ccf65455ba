package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"info level", "info"},
		{"debug level", "debug"},
		{"trace level", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)
			if logger == nil {
				t.Fatal("NewLogger returned nil")
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestLevelTrace(t *testing.T) {
	// Trace should be below debug (more verbose)
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%d) should be less than LevelDebug (%d)", LevelTrace, slog.LevelDebug)
	}
}

func TestNewEventLog_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLog(dir, "info")

	if el != nil {
		t.Error("expected nil EventLog at info level")
	}

	// Nil log should still be safe to use
	el.Record("adjust", map[string]any{"trajectory": 1})

	if _, err := os.Stat(filepath.Join(dir, EventFile)); err == nil {
		t.Errorf("%s should not exist at info level", EventFile)
	}
}

func TestNewEventLog_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLog(dir, "debug")
	defer el.Close()

	el.Record("adjust", map[string]any{"improvement": 0.87, "renormalized": true})

	data, err := os.ReadFile(filepath.Join(dir, EventFile))
	if err != nil {
		t.Fatalf("failed to read %s: %v", EventFile, err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}

	if entry["event"] != "adjust" {
		t.Errorf("event = %v, want adjust", entry["event"])
	}
	if entry["improvement"] != 0.87 {
		t.Errorf("improvement = %v, want 0.87", entry["improvement"])
	}
	if entry["renormalized"] != true {
		t.Errorf("renormalized = %v, want true", entry["renormalized"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in event entry")
	}
}

func TestNewEventLog_TraceLevel(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLog(dir, "trace")
	defer el.Close()

	el.Record("run_start", nil)

	data, err := os.ReadFile(filepath.Join(dir, EventFile))
	if err != nil {
		t.Fatalf("failed to read %s: %v", EventFile, err)
	}
	if !strings.Contains(string(data), "run_start") {
		t.Error("expected run_start in event log")
	}
}

func TestEventLog_MultipleWritesAppend(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLog(dir, "debug")
	el.Record("adjust", map[string]any{"trajectory": 0})
	el.Record("adjust", map[string]any{"trajectory": 1})
	el.Close()

	// Reopening appends rather than truncating.
	el = NewEventLog(dir, "debug")
	el.Record("adjust", map[string]any{"trajectory": 2})
	el.Close()

	data, err := os.ReadFile(filepath.Join(dir, EventFile))
	if err != nil {
		t.Fatalf("failed to read %s: %v", EventFile, err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), string(data))
	}
	for i, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if entry["trajectory"] != float64(i) {
			t.Errorf("line %d trajectory = %v, want %d", i, entry["trajectory"], i)
		}
	}
}

func TestEventLog_NilSafety(t *testing.T) {
	var el *EventLog
	el.Record("should_not_panic", nil)
	el.Close()
}

func TestEventLog_DoesNotMutateFields(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLog(dir, "debug")
	defer el.Close()

	fields := map[string]any{"baseline": -4.0}
	el.Record("adjust", fields)

	if len(fields) != 1 {
		t.Errorf("Record() mutated caller's map: %v", fields)
	}
}

func TestEventLog_RecordAfterClose(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLog(dir, "debug")

	el.Record("before_close", nil)
	el.Close()
	el.Record("after_close", nil)

	data, _ := os.ReadFile(filepath.Join(dir, EventFile))
	if strings.Contains(string(data), "after_close") {
		t.Error("event recorded after Close")
	}
}

func TestNewEventLog_CreatesDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "sub", "dir")

	el := NewEventLog(nested, "debug")
	if el == nil {
		t.Fatal("expected non-nil EventLog when dir needs creation")
	}
	defer el.Close()

	el.Record("dir_create_test", nil)
	if _, err := os.Stat(filepath.Join(nested, EventFile)); err != nil {
		t.Fatalf("%s should exist after dir creation: %v", EventFile, err)
	}
}

func TestEventLog_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	el := NewEventLog(dir, "debug")
	defer el.Close()

	el.Record("perm_test", nil)

	info, err := os.Stat(filepath.Join(dir, EventFile))
	if err != nil {
		t.Fatalf("failed to stat %s: %v", EventFile, err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "step")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected level=TRACE, got %q", buf.String())
	}
}
