package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// LogLevel defines the minimum severity for error logs.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

const (
	defaultServerAddress   = ":8080"
	defaultReadTimeout     = "10s"
	defaultMaxRequestBytes = 8192
	defaultDocumentRoot    = "./www"
	defaultLogLevel        = LogLevelInfo
	defaultAccessLogTarget = "stdout"
	defaultAccessLogFormat = "json"
	defaultErrorLogTarget  = "stderr"
)

// Config is the top-level configuration structure for the server.
type Config struct {
	Server  *ServerConfig  `json:"server,omitempty" toml:"server,omitempty"`
	Static  *StaticConfig  `json:"static,omitempty" toml:"static,omitempty"`
	Logging *LoggingConfig `json:"logging,omitempty" toml:"logging,omitempty"`
}

// ServerConfig holds the listener and per-connection settings.
type ServerConfig struct {
	Address         *string `json:"address,omitempty" toml:"address,omitempty"`
	ReadTimeout     *string `json:"read_timeout,omitempty" toml:"read_timeout,omitempty"` // e.g., "10s"
	MaxRequestBytes *int    `json:"max_request_bytes,omitempty" toml:"max_request_bytes,omitempty"`
	MaxConnections  *int    `json:"max_connections,omitempty" toml:"max_connections,omitempty"` // 0 means unlimited
}

// StaticConfig describes the document root and which file types may be served from it.
type StaticConfig struct {
	DocumentRoot     string          `json:"document_root,omitempty" toml:"document_root,omitempty"`
	AllowedFileTypes map[string]bool `json:"allowed_file_types,omitempty" toml:"allowed_file_types,omitempty"`
}

// LoggingConfig holds logging configurations.
type LoggingConfig struct {
	LogLevel  LogLevel         `json:"log_level,omitempty" toml:"log_level,omitempty"`
	AccessLog *AccessLogConfig `json:"access_log,omitempty" toml:"access_log,omitempty"`
	ErrorLog  *ErrorLogConfig  `json:"error_log,omitempty" toml:"error_log,omitempty"`
}

// AccessLogConfig configures access logging.
type AccessLogConfig struct {
	Enabled *bool  `json:"enabled,omitempty" toml:"enabled,omitempty"`
	Target  string `json:"target,omitempty" toml:"target,omitempty"`
	Format  string `json:"format,omitempty" toml:"format,omitempty"` // "json" or "text"
}

// ErrorLogConfig configures error logging.
type ErrorLogConfig struct {
	Target string `json:"target,omitempty" toml:"target,omitempty"`
}

// DefaultAllowedFileTypes returns a fresh copy of the built-in allow-list.
func DefaultAllowedFileTypes() map[string]bool {
	return map[string]bool{".html": true, ".css": true}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// IsFilePath reports whether a log target names a file rather than a standard stream.
func IsFilePath(target string) bool {
	return target != "stdout" && target != "stderr"
}

// LoadConfig reads the configuration file at path. The format is chosen by the
// file extension (.json or .toml); any other extension is auto-detected by
// trying JSON first and TOML second. Defaults are applied and the result is
// validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path cannot be empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	cfg, err := parseConfig(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch ext {
	case ".json":
		if err := decodeJSON(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		jsonErr := decodeJSON(data, &cfg)
		if jsonErr == nil {
			return &cfg, nil
		}
		cfg = Config{}
		if _, tomlErr := toml.Decode(string(data), &cfg); tomlErr != nil {
			return nil, fmt.Errorf("failed to auto-detect and parse config: JSON error: %v; TOML error: %v", jsonErr, tomlErr)
		}
	}
	return &cfg, nil
}

func decodeJSON(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("unexpected end of JSON input")
		}
		return err
	}
	return nil
}

// ApplyDefaults fills every unset field of cfg with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.Address == nil {
		cfg.Server.Address = strPtr(defaultServerAddress)
	}
	if cfg.Server.ReadTimeout == nil {
		cfg.Server.ReadTimeout = strPtr(defaultReadTimeout)
	}
	if cfg.Server.MaxRequestBytes == nil {
		cfg.Server.MaxRequestBytes = intPtr(defaultMaxRequestBytes)
	}
	if cfg.Server.MaxConnections == nil {
		cfg.Server.MaxConnections = intPtr(0)
	}

	if cfg.Static == nil {
		cfg.Static = &StaticConfig{}
	}
	if cfg.Static.DocumentRoot == "" {
		cfg.Static.DocumentRoot = defaultDocumentRoot
	}
	if cfg.Static.AllowedFileTypes == nil {
		cfg.Static.AllowedFileTypes = DefaultAllowedFileTypes()
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.LogLevel == "" {
		cfg.Logging.LogLevel = defaultLogLevel
	}
	if cfg.Logging.AccessLog == nil {
		cfg.Logging.AccessLog = &AccessLogConfig{}
	}
	if cfg.Logging.AccessLog.Enabled == nil {
		cfg.Logging.AccessLog.Enabled = boolPtr(true)
	}
	if cfg.Logging.AccessLog.Target == "" {
		cfg.Logging.AccessLog.Target = defaultAccessLogTarget
	}
	if cfg.Logging.AccessLog.Format == "" {
		cfg.Logging.AccessLog.Format = defaultAccessLogFormat
	}
	if cfg.Logging.ErrorLog == nil {
		cfg.Logging.ErrorLog = &ErrorLogConfig{}
	}
	if cfg.Logging.ErrorLog.Target == "" {
		cfg.Logging.ErrorLog.Target = defaultErrorLogTarget
	}
}

// Validate checks a defaulted configuration for semantic errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if cfg.Server != nil {
		if cfg.Server.Address != nil && *cfg.Server.Address == "" {
			return fmt.Errorf("server.address cannot be empty")
		}
		if cfg.Server.ReadTimeout != nil {
			d, err := time.ParseDuration(*cfg.Server.ReadTimeout)
			if err != nil {
				return fmt.Errorf("server.read_timeout %q is not a valid duration: %w", *cfg.Server.ReadTimeout, err)
			}
			if d <= 0 {
				return fmt.Errorf("server.read_timeout must be positive, got %s", d)
			}
		}
		if cfg.Server.MaxRequestBytes != nil && *cfg.Server.MaxRequestBytes <= 0 {
			return fmt.Errorf("server.max_request_bytes must be positive, got %d", *cfg.Server.MaxRequestBytes)
		}
		if cfg.Server.MaxConnections != nil && *cfg.Server.MaxConnections < 0 {
			return fmt.Errorf("server.max_connections cannot be negative, got %d", *cfg.Server.MaxConnections)
		}
	}

	if cfg.Static != nil {
		if cfg.Static.DocumentRoot == "" {
			return fmt.Errorf("static.document_root cannot be empty")
		}
		for ext := range cfg.Static.AllowedFileTypes {
			if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
				return fmt.Errorf("static.allowed_file_types key %q must be an extension starting with '.'", ext)
			}
		}
	}

	if cfg.Logging != nil {
		switch cfg.Logging.LogLevel {
		case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		default:
			return fmt.Errorf("logging.log_level %q is invalid; must be one of DEBUG, INFO, WARNING, ERROR", cfg.Logging.LogLevel)
		}
		if al := cfg.Logging.AccessLog; al != nil {
			if err := validateLogTarget("logging.access_log.target", al.Target); err != nil {
				return err
			}
			if al.Format != "json" && al.Format != "text" {
				return fmt.Errorf("logging.access_log.format %q is invalid; must be 'json' or 'text'", al.Format)
			}
		}
		if el := cfg.Logging.ErrorLog; el != nil {
			if err := validateLogTarget("logging.error_log.target", el.Target); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLogTarget(field, target string) error {
	if target == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if IsFilePath(target) && !filepath.IsAbs(target) {
		return fmt.Errorf("%s %q must be 'stdout', 'stderr', or an absolute file path", field, target)
	}
	return nil
}

// ReadTimeoutDuration returns the parsed read timeout, falling back to the default.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	if s != nil && s.ReadTimeout != nil {
		if d, err := time.ParseDuration(*s.ReadTimeout); err == nil && d > 0 {
			return d
		}
	}
	d, _ := time.ParseDuration(defaultReadTimeout)
	return d
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
