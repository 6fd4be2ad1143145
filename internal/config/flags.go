package config

import (
	"strings"

	"github.com/spf13/pflag"
)

// Flag names shared by every command.
const (
	FlagConfig      = "config"
	FlagLogLevel    = "log-level"
	FlagLogFormat   = "log-format"
	FlagHistoryPath = "history-path"
	FlagNoHistory   = "no-history"
)

// RegisterFlags adds the settings flags to fs. Flags only take effect when
// set explicitly; see ApplyFlags.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "path to a TOML config file (default ~/.upf/config.toml)")
	fs.String(FlagLogLevel, "", "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, "", "log format: auto, text, json, pretty")
	fs.String(FlagHistoryPath, "", "conversion history database path")
	fs.Bool(FlagNoHistory, false, "do not record conversion history")
}

// ApplyFlags copies explicitly set flags from fs onto c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) {
	if fs.Changed(FlagLogLevel) {
		v, _ := fs.GetString(FlagLogLevel)
		c.Log.Level = strings.ToLower(v)
	}
	if fs.Changed(FlagLogFormat) {
		v, _ := fs.GetString(FlagLogFormat)
		c.Log.Format = LogFormat(strings.ToLower(v))
	}
	if fs.Changed(FlagHistoryPath) {
		c.History.Path, _ = fs.GetString(FlagHistoryPath)
	}
	if fs.Changed(FlagNoHistory) {
		if off, _ := fs.GetBool(FlagNoHistory); off {
			c.History.Enabled = false
		}
	}
}

// Resolve runs the full precedence chain: defaults, file, environment,
// flags, then validation.
func Resolve(fs *pflag.FlagSet) (Config, error) {
	path := ""
	if fs != nil {
		path, _ = fs.GetString(FlagConfig)
	}
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg, err := Load(path, Default(DefaultHistoryPath()))
	if err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv()
	if fs != nil {
		cfg.ApplyFlags(fs)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
