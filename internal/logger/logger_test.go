package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"example.com/wwwserve/internal/config"
)

// readLogBuffer is a convenience function to read log lines from a bytes.Buffer.
func readLogBuffer(buf *bytes.Buffer) []string {
	s := strings.TrimRight(buf.String(), "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

// parseJSONLine unmarshals a single log line, failing the test on error.
func parseJSONLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Failed to parse log line %q: %v", line, err)
	}
	return entry
}

func boolPtr(b bool) *bool {
	return &b
}

func TestNewLogger_NilConfig(t *testing.T) {
	if _, err := NewLogger(nil); err == nil {
		t.Fatal("Expected error for nil logging configuration")
	}
}

func TestNewLogger_InvalidTarget(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LoggingConfig{
		LogLevel: config.LogLevelInfo,
		ErrorLog: &config.ErrorLogConfig{Target: filepath.Join(dir, "missing", "error.log")},
	}
	if _, err := NewLogger(cfg); err == nil {
		t.Fatal("Expected error when error log directory does not exist")
	}
}

func TestNewLogger_AccessTargetFailureClosesErrorLog(t *testing.T) {
	dir := t.TempDir()
	errPath := filepath.Join(dir, "error.log")
	cfg := &config.LoggingConfig{
		LogLevel:  config.LogLevelInfo,
		ErrorLog:  &config.ErrorLogConfig{Target: errPath},
		AccessLog: &config.AccessLogConfig{Target: filepath.Join(dir, "missing", "access.log"), Format: "json"},
	}
	_, err := NewLogger(cfg)
	if err == nil {
		t.Fatal("Expected error when access log directory does not exist")
	}
	if !strings.Contains(err.Error(), "failed to open access log") {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, statErr := os.Stat(errPath); statErr != nil {
		t.Errorf("Expected error log file to have been created: %v", statErr)
	}
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestLogger_CloseOnErrorReportsCloseFailure(t *testing.T) {
	closeErr := errors.New("disk gone")
	openErr := errors.New("failed to open access log")
	l := &Logger{closers: []io.Closer{failingCloser{err: closeErr}}}

	err := l.closeOnError(openErr)
	if !errors.Is(err, openErr) {
		t.Errorf("Expected open error to be preserved, got %v", err)
	}
	if !errors.Is(err, closeErr) {
		t.Errorf("Expected close error to be joined, got %v", err)
	}
	if len(l.closers) != 0 {
		t.Errorf("Expected closers to be released, got %d", len(l.closers))
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	errPath := filepath.Join(dir, "error.log")
	cfg := &config.LoggingConfig{
		LogLevel: config.LogLevelWarning,
		ErrorLog: &config.ErrorLogConfig{Target: errPath},
	}
	lg, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	lg.Debug("debug message", nil)
	lg.Info("info message", LogFields{"k": "v"})
	lg.Warn("warn message", LogFields{"path": "/index.html"})
	lg.Error("error message", nil)

	if err := lg.CloseLogFiles(); err != nil {
		t.Fatalf("CloseLogFiles failed: %v", err)
	}

	data, err := os.ReadFile(errPath)
	if err != nil {
		t.Fatalf("Failed to read error log: %v", err)
	}
	lines := readLogBuffer(bytes.NewBuffer(data))
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines at WARNING level, got %d: %v", len(lines), lines)
	}

	warn := parseJSONLine(t, lines[0])
	if warn["level"] != "warn" || warn["message"] != "warn message" || warn["path"] != "/index.html" {
		t.Errorf("Unexpected warn entry: %v", warn)
	}
	if _, ok := warn["time"]; !ok {
		t.Errorf("Expected a timestamp field in %v", warn)
	}
	errEntry := parseJSONLine(t, lines[1])
	if errEntry["level"] != "error" {
		t.Errorf("Expected error level, got %v", errEntry["level"])
	}
}

func TestLogger_AccessJSON(t *testing.T) {
	var buf bytes.Buffer
	lg := NewTestLogger(&buf)

	lg.Access(AccessEntry{
		RemoteAddr: "127.0.0.1:5555",
		Method:     "GET",
		Target:     "/index.html",
		Status:     200,
		RespBytes:  2048,
		Duration:   15 * time.Millisecond,
	})

	lines := readLogBuffer(&buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 access line, got %d", len(lines))
	}
	entry := parseJSONLine(t, lines[0])
	if entry["method"] != "GET" || entry["uri"] != "/index.html" || entry["remote_addr"] != "127.0.0.1:5555" {
		t.Errorf("Unexpected access entry: %v", entry)
	}
	if entry["status"] != float64(200) {
		t.Errorf("Expected status 200, got %v", entry["status"])
	}
	if entry["resp_bytes"] != float64(2048) || entry["resp_size"] != "2.0 kB" {
		t.Errorf("Unexpected size fields: resp_bytes=%v resp_size=%v", entry["resp_bytes"], entry["resp_size"])
	}
	if entry["duration_ms"] != float64(15) {
		t.Errorf("Expected duration_ms 15, got %v", entry["duration_ms"])
	}
}

func TestLogger_AccessDisabled(t *testing.T) {
	dir := t.TempDir()
	accessPath := filepath.Join(dir, "access.log")
	cfg := &config.LoggingConfig{
		LogLevel:  config.LogLevelInfo,
		AccessLog: &config.AccessLogConfig{Enabled: boolPtr(false), Target: accessPath, Format: "json"},
		ErrorLog:  &config.ErrorLogConfig{Target: "stderr"},
	}
	lg, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	lg.Access(AccessEntry{Method: "GET", Target: "/", Status: 200})
	if err := lg.CloseLogFiles(); err != nil {
		t.Fatalf("CloseLogFiles failed: %v", err)
	}
	if _, err := os.Stat(accessPath); !os.IsNotExist(err) {
		t.Errorf("Expected access log file to not be created when disabled, stat err: %v", err)
	}
}

func TestLogger_AccessTextFormat(t *testing.T) {
	dir := t.TempDir()
	accessPath := filepath.Join(dir, "access.log")
	cfg := &config.LoggingConfig{
		LogLevel:  config.LogLevelInfo,
		AccessLog: &config.AccessLogConfig{Enabled: boolPtr(true), Target: accessPath, Format: "text"},
		ErrorLog:  &config.ErrorLogConfig{Target: "stderr"},
	}
	lg, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	lg.Access(AccessEntry{RemoteAddr: "10.0.0.1:80", Method: "GET", Target: "/style.css", Status: 404})
	if err := lg.CloseLogFiles(); err != nil {
		t.Fatalf("CloseLogFiles failed: %v", err)
	}

	data, err := os.ReadFile(accessPath)
	if err != nil {
		t.Fatalf("Failed to read access log: %v", err)
	}
	line := string(data)
	if strings.HasPrefix(strings.TrimSpace(line), "{") {
		t.Errorf("Expected console formatted line, got JSON: %s", line)
	}
	for _, want := range []string{"method=GET", "uri=/style.css", "status=404"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected access line to contain %q, got %q", want, line)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	lg := NewDiscardLogger()
	lg.Info("dropped", LogFields{"a": 1})
	lg.Access(AccessEntry{Status: 200})
	if err := lg.CloseLogFiles(); err != nil {
		t.Errorf("CloseLogFiles on discard logger returned %v", err)
	}
}
