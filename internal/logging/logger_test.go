package logging_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"emotrace/internal/config"
	"emotrace/internal/logging"
	"emotrace/internal/stage"
)

func newFileLogger(t *testing.T, format, level string) (*slog.Logger, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	read := func() string {
		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(data)
	}
	return logger, read
}

func TestNewFromConfigWritesStateLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.StateDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("expected message in log file, got %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logger, read := newFileLogger(t, "console", "info")
	logger.Info("message without caller")

	if content := read(); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logger, read := newFileLogger(t, "console", "debug")
	logger.Debug("message with caller")

	if content := read(); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleHeaderCarriesComponentAndSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "subject.log")
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := stage.WithRunID(context.Background(), "0123456789abcdef")
	ctx = stage.WithStage(ctx, "repair")
	ctx = stage.WithVideoID(ctx, 2)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "repair"))
	logger.Info("runs grouped", logging.Args(logging.Int("runs", 4))...)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	for _, want := range []string{"INFO [repair]", "Run 01234567 (repair)", "Video 2", "runs grouped", "- runs: 4"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Contains(content, "run_id:") {
		t.Fatalf("run id should only appear in the header, got %q", content)
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	base, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := stage.WithRunID(context.Background(), "run-1")
	ctx = stage.WithStage(ctx, "filter")
	logging.WarnWithContext(logging.WithContext(ctx, base), "subjects removed", "subjects_removed")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("decode json line %q: %v", data, err)
	}
	checks := map[string]string{
		"level":                "warn",
		logging.FieldRunID:     "run-1",
		logging.FieldStage:     "filter",
		logging.FieldEventType: "subjects_removed",
		logging.FieldErrorHint: "check logs for details",
		logging.FieldImpact:    "operation completed with warnings",
	}
	for key, want := range checks {
		if got, _ := entry[key].(string); got != want {
			t.Fatalf("%s = %q, want %q (entry %v)", key, got, want, entry)
		}
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestErrorWithContextKeepsProvidedHint(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "err.log")
	base, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(base, "boom", "stage_failed", logging.String(logging.FieldErrorHint, "rerun with --debug"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Count(string(data), logging.FieldErrorHint) != 1 || !strings.Contains(string(data), "rerun with --debug") {
		t.Fatalf("unexpected error hint handling: %q", data)
	}
}

func TestNilLoggersAreSafe(t *testing.T) {
	logging.WarnWithContext(nil, "ignored", "noop")
	logging.ErrorWithContext(nil, "ignored", "noop")
	logging.NewComponentLogger(nil, "x").Info("discarded")
	logging.WithContext(context.Background(), nil).Info("discarded")
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		run, stage, video string
		want              string
	}{
		{"", "", "", ""},
		{"abc", "", "", "Run abc"},
		{"", "ingest", "", "ingest"},
		{"0123456789", "aggregate", "3", "Run 01234567 (aggregate) · Video 3"},
	}
	for _, tc := range tests {
		if got := logging.FormatSubject(tc.run, tc.stage, tc.video); got != tc.want {
			t.Fatalf("FormatSubject(%q,%q,%q) = %q, want %q", tc.run, tc.stage, tc.video, got, tc.want)
		}
	}
}
