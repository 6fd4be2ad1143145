// Package config loads upf settings from a TOML file, UPF_* environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type LogFormat string

const (
	LogFormatAuto   LogFormat = "auto"
	LogFormatText   LogFormat = "text"
	LogFormatJSON   LogFormat = "json"
	LogFormatPretty LogFormat = "pretty"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
	Convert ConvertConfig `toml:"convert"`
	Metrics MetricsConfig `toml:"metrics"`
}

type ServerConfig struct {
	Bind              string   `toml:"bind"`
	MaxUploadBytes    int64    `toml:"max_upload_bytes"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	ShutdownTimeoutS  int      `toml:"shutdown_timeout_seconds"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type LogConfig struct {
	Level  string    `toml:"level"`
	Format LogFormat `toml:"format"`
}

type ConvertConfig struct {
	// TemplateStart anchors templates that declare no start date.
	// Accepts RFC 3339 or "2006-01-02T15:04"; empty uses the built-in anchor.
	TemplateStart string `toml:"template_start"`
	SniffPrefix   int    `toml:"sniff_prefix"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// DefaultMaxUploadBytes is 50 MiB.
const DefaultMaxUploadBytes = 50 << 20

// DefaultExtensions lists the upload extensions accepted by default.
func DefaultExtensions() []string {
	return []string{".mpp", ".mpx", ".xml", ".mpt"}
}

// DefaultHistoryPath returns ~/.upf/history.db, or a relative path when the
// home directory cannot be determined.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".upf", "history.db")
	}
	return filepath.Join(home, ".upf", "history.db")
}

// DefaultConfigPath returns $UPF_CONFIG, or ~/.upf/config.toml.
func DefaultConfigPath() string {
	if v := os.Getenv("UPF_CONFIG"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".upf", "config.toml")
}

func Default(historyPath string) Config {
	return Config{
		Server: ServerConfig{
			Bind:              "127.0.0.1:8080",
			MaxUploadBytes:    DefaultMaxUploadBytes,
			AllowedExtensions: DefaultExtensions(),
			ShutdownTimeoutS:  10,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    historyPath,
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatAuto,
		},
		Convert: ConvertConfig{
			SniffPrefix: 8 << 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load overlays the TOML file at path onto defaults. A missing or empty
// file leaves the defaults untouched.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be > 0, got %d", c.Server.MaxUploadBytes)
	}
	if len(c.Server.AllowedExtensions) == 0 {
		return errors.New("server.allowed_extensions must list at least one extension")
	}
	for i, ext := range c.Server.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("server.allowed_extensions[%d] must look like \".ext\", got %q", i, ext)
		}
	}
	if c.Server.ShutdownTimeoutS < 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be >= 0, got %d", c.Server.ShutdownTimeoutS)
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path is required when history is enabled")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case LogFormatAuto, LogFormatText, LogFormatJSON, LogFormatPretty:
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}

	if c.Convert.SniffPrefix < 0 {
		return fmt.Errorf("convert.sniff_prefix must be >= 0, got %d", c.Convert.SniffPrefix)
	}
	if _, err := c.Convert.TemplateStartTime(); err != nil {
		return err
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}
	return nil
}

// ExtensionAllowed reports whether name ends in one of the allowed
// extensions, ignoring case.
func (s ServerConfig) ExtensionAllowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	return slices.ContainsFunc(s.AllowedExtensions, func(allowed string) bool {
		return strings.EqualFold(allowed, ext)
	})
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutS) * time.Second
}

var templateStartLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// TemplateStartTime parses TemplateStart; nil means unset.
func (c ConvertConfig) TemplateStartTime() (*time.Time, error) {
	s := strings.TrimSpace(c.TemplateStart)
	if s == "" {
		return nil, nil
	}
	for _, layout := range templateStartLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC().Truncate(time.Minute)
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid convert.template_start: %q", c.TemplateStart)
}
