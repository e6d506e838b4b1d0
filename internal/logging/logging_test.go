package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDailyWriterWriteAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewDailyWriter(dir, "", 0)
	if err != nil {
		t.Fatalf("NewDailyWriter: %v", err)
	}
	defer writer.Close()

	if writer.retentionDays != defaultRetention {
		t.Fatalf("expected default retention, got %d", writer.retentionDays)
	}
	if _, err := writer.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(dir, defaultPrefix+"-"+time.Now().Format(dateLayout)+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("log content missing")
	}
}

func TestDailyWriterRotatesOnNewDay(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewDailyWriter(dir, "rot", 30)
	if err != nil {
		t.Fatalf("NewDailyWriter: %v", err)
	}
	defer writer.Close()

	tomorrow := time.Now().AddDate(0, 0, 1)
	writer.now = func() time.Time { return tomorrow }
	if _, err := writer.Write([]byte("next day")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(writer.path(tomorrow.Format(dateLayout)))
	if err != nil {
		t.Fatalf("read rotated log: %v", err)
	}
	if string(data) != "next day" {
		t.Fatalf("unexpected rotated content %q", data)
	}
}

func TestDailyWriterPrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	prefix := "test"

	oldPath := filepath.Join(dir, prefix+"-"+time.Now().AddDate(0, 0, -3).Format(dateLayout)+".log")
	recentPath := filepath.Join(dir, prefix+"-"+time.Now().Format(dateLayout)+".log")
	otherPath := filepath.Join(dir, "other-20000101.log")
	for _, p := range []string{oldPath, recentPath, otherPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	writer, err := NewDailyWriter(dir, prefix, 1)
	if err != nil {
		t.Fatalf("NewDailyWriter: %v", err)
	}
	defer writer.Close()

	if _, err := os.Stat(oldPath); err == nil {
		t.Fatalf("expected old log to be removed")
	}
	if _, err := os.Stat(recentPath); err != nil {
		t.Fatalf("expected recent log to remain: %v", err)
	}
	if _, err := os.Stat(otherPath); err != nil {
		t.Fatalf("files with another prefix must be kept: %v", err)
	}
}

func TestDailyWriterCloseNil(t *testing.T) {
	w := &DailyWriter{}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewConsoleOnly(t *testing.T) {
	t.Setenv(envLogLevel, "")
	t.Setenv(envLogFormat, "")

	var buf bytes.Buffer
	logger, closer, err := New(Options{Console: &buf, Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "service=reportdesk") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNewWithFileAndEnvOverrides(t *testing.T) {
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envLogFormat, "JSON")

	dir := t.TempDir()
	var buf bytes.Buffer
	logger, closer, err := New(Options{Dir: dir, Console: &buf, Level: slog.LevelError, Service: "api"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("model call", "provider", "groq")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("expected one json record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "model call" || record["service"] != "api" || record["provider"] != "groq" {
		t.Fatalf("unexpected record: %v", record)
	}

	data, err := os.ReadFile(filepath.Join(dir, "api-"+time.Now().Format(dateLayout)+".log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "model call") {
		t.Fatalf("file missing record: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"":        slog.LevelWarn,
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"-8":      slog.Level(-8),
		"loud":    slog.LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLevel(in, slog.LevelWarn); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
