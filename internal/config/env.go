package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides settings from UPF_* environment variables. Values
// that fail to parse are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("UPF_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("UPF_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.Server.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("UPF_ALLOWED_EXTENSIONS"); v != "" {
		c.Server.AllowedExtensions = splitList(v)
	}
	if v := os.Getenv("UPF_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Server.ShutdownTimeoutS = n
		}
	}
	if v := os.Getenv("UPF_HISTORY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.History.Enabled = b
		}
	}
	if v := os.Getenv("UPF_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("UPF_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("UPF_LOG_FORMAT"); v != "" {
		c.Log.Format = LogFormat(strings.ToLower(v))
	}
	if v := os.Getenv("UPF_TEMPLATE_START"); v != "" {
		c.Convert.TemplateStart = v
	}
	if v := os.Getenv("UPF_SNIFF_PREFIX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Convert.SniffPrefix = n
		}
	}
	if v := os.Getenv("UPF_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Metrics.Enabled = b
		}
	}
}

// splitList parses a comma or space separated extension list, adding the
// leading dot when missing.
func splitList(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !strings.HasPrefix(f, ".") {
			f = "." + f
		}
		out = append(out, f)
	}
	return out
}
