package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"example.com/wwwserve/internal/config"
)

// LogFields carries structured key/value pairs attached to a log entry.
type LogFields map[string]interface{}

// AccessEntry describes one served request.
type AccessEntry struct {
	RemoteAddr string
	Method     string
	Target     string
	Status     int
	RespBytes  int64
	Duration   time.Duration
}

// Logger is a general logger that contains specific loggers for access and errors.
type Logger struct {
	errorLog  zerolog.Logger
	accessLog *zerolog.Logger // nil when access logging is disabled
	closers   []io.Closer
}

// NewLogger creates and configures a new Logger instance.
func NewLogger(cfg *config.LoggingConfig) (*Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging configuration cannot be nil")
	}

	l := &Logger{}

	errorTarget := "stderr"
	if cfg.ErrorLog != nil && cfg.ErrorLog.Target != "" {
		errorTarget = cfg.ErrorLog.Target
	}
	errorOutput, err := l.openTarget(errorTarget)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log: %w", err)
	}
	l.errorLog = zerolog.New(errorOutput).
		Level(zerologLevel(cfg.LogLevel)).
		With().Timestamp().Logger()

	if cfg.AccessLog != nil && (cfg.AccessLog.Enabled == nil || *cfg.AccessLog.Enabled) {
		accessTarget := cfg.AccessLog.Target
		if accessTarget == "" {
			accessTarget = "stdout"
		}
		accessOutput, err := l.openTarget(accessTarget)
		if err != nil {
			return nil, l.closeOnError(fmt.Errorf("failed to open access log: %w", err))
		}
		if cfg.AccessLog.Format == "text" {
			accessOutput = zerolog.ConsoleWriter{Out: accessOutput, NoColor: true, TimeFormat: time.RFC3339}
		}
		al := zerolog.New(accessOutput).With().Timestamp().Logger()
		l.accessLog = &al
	}

	return l, nil
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *Logger {
	al := zerolog.Nop()
	return &Logger{errorLog: zerolog.Nop(), accessLog: &al}
}

// NewTestLogger returns a logger writing both error (at DEBUG) and access
// entries as JSON lines to out.
func NewTestLogger(out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	al := zerolog.New(out).With().Timestamp().Str("log", "access").Logger()
	return &Logger{
		errorLog:  zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger(),
		accessLog: &al,
	}
}

func (l *Logger) openTarget(target string) (io.Writer, error) {
	switch target {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if !config.IsFilePath(target) {
		return nil, fmt.Errorf("invalid log target: %s", target)
	}
	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", target, err)
	}
	l.closers = append(l.closers, f)
	return f, nil
}

func zerologLevel(level config.LogLevel) zerolog.Level {
	switch level {
	case config.LogLevelDebug:
		return zerolog.DebugLevel
	case config.LogLevelWarning:
		return zerolog.WarnLevel
	case config.LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func withFields(e *zerolog.Event, fields []LogFields) *zerolog.Event {
	for _, f := range fields {
		if f != nil {
			e = e.Fields(map[string]interface{}(f))
		}
	}
	return e
}

func (l *Logger) Debug(msg string, fields ...LogFields) {
	withFields(l.errorLog.Debug(), fields).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...LogFields) {
	withFields(l.errorLog.Info(), fields).Msg(msg)
}

func (l *Logger) Warn(msg string, fields ...LogFields) {
	withFields(l.errorLog.Warn(), fields).Msg(msg)
}

func (l *Logger) Error(msg string, fields ...LogFields) {
	withFields(l.errorLog.Error(), fields).Msg(msg)
}

// Access writes a single access log entry. It is a no-op when access logging is disabled.
func (l *Logger) Access(entry AccessEntry) {
	if l.accessLog == nil {
		return
	}
	size := entry.RespBytes
	if size < 0 {
		size = 0
	}
	l.accessLog.Log().
		Str("remote_addr", entry.RemoteAddr).
		Str("method", entry.Method).
		Str("uri", entry.Target).
		Int("status", entry.Status).
		Int64("resp_bytes", entry.RespBytes).
		Str("resp_size", humanize.Bytes(uint64(size))).
		Int64("duration_ms", entry.Duration.Milliseconds()).
		Send()
}

// closeOnError closes files opened so far and reports err along with any close failure.
func (l *Logger) closeOnError(err error) error {
	return errors.Join(err, l.CloseLogFiles())
}

// CloseLogFiles closes any open log files.
// This would be called during server shutdown.
func (l *Logger) CloseLogFiles() error {
	var errs []error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}
