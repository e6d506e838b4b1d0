package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultPrefix    = "reportdesk"
	defaultRetention = 7
	dateLayout       = "20060102"
)

const (
	envLogLevel  = "REPORTDESK_LOG_LEVEL"
	envLogFormat = "REPORTDESK_LOG_FORMAT"
)

// DailyWriter appends to one file per day and prunes files past retention.
type DailyWriter struct {
	dir           string
	prefix        string
	retentionDays int
	now           func() time.Time

	mu          sync.Mutex
	currentDate string
	file        *os.File
}

// NewDailyWriter creates a writer in dir named <prefix>-YYYYMMDD.log.
func NewDailyWriter(dir, prefix string, retentionDays int) (*DailyWriter, error) {
	if retentionDays <= 0 {
		retentionDays = defaultRetention
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	w := &DailyWriter{
		dir:           dir,
		prefix:        prefix,
		retentionDays: retentionDays,
		now:           time.Now,
	}
	if err := w.rotateIfNeeded(w.now()); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer.
func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.rotateIfNeeded(w.now()); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

// Close closes the current file.
func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *DailyWriter) path(date string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.log", w.prefix, date))
}

func (w *DailyWriter) rotateIfNeeded(now time.Time) error {
	date := now.Format(dateLayout)
	if date == w.currentDate && w.file != nil {
		return nil
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	file, err := os.OpenFile(w.path(date), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	w.currentDate = date
	w.file = file
	w.prune(now)
	return nil
}

func (w *DailyWriter) prune(now time.Time) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -w.retentionDays)
	prefix := w.prefix + "-"
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		date, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".log"))
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			_ = os.Remove(filepath.Join(w.dir, name))
		}
	}
}

// Options configures New.
type Options struct {
	// Dir enables the daily file writer. Empty logs to Console only.
	Dir           string
	RetentionDays int
	Level         slog.Level
	// Console defaults to os.Stdout.
	Console io.Writer
	// Service is attached to every record.
	Service string
}

// New builds a logger writing to the console and, when Dir is set, a daily
// file. REPORTDESK_LOG_LEVEL and REPORTDESK_LOG_FORMAT override Level and the
// text format. The returned closer is never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	var out io.Writer = console
	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		writer, err := NewDailyWriter(opts.Dir, opts.Service, opts.RetentionDays)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(console, writer)
		closer = writer
	}

	service := opts.Service
	if service == "" {
		service = defaultPrefix
	}
	level := ParseLevel(os.Getenv(envLogLevel), opts.Level)
	logger := slog.New(newHandler(out, level, os.Getenv(envLogFormat))).With("service", service)
	return logger, closer, nil
}

// ParseLevel maps debug/info/warn/error or a numeric level. Anything else
// returns fallback.
func ParseLevel(value string, fallback slog.Level) slog.Level {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "":
		return fallback
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if i, err := strconv.Atoi(value); err == nil {
		return slog.Level(i)
	}
	return fallback
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	options := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.NewJSONHandler(w, options)
	}
	return slog.NewTextHandler(w, options)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
