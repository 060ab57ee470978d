// Package config loads csvview settings from defaults, an optional YAML
// file and CSVVIEW_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/vegasq/csvview/reader"
)

// Config holds every setting of the CLI and the HTTP API.
type Config struct {
	ListenAddr string `yaml:"listen-addr"` // HTTP listen address (default ":8080")
	LogLevel   string `yaml:"log-level"`   // debug, info, warn, error (default "info")
	LogFormat  string `yaml:"log-format"`  // text or json (default "text")
	SeqURL     string `yaml:"seq-url"`     // Seq ingestion URL; empty disables shipping

	MaxUploadBytes int64         `yaml:"max-upload-bytes"` // request body limit for uploads (default 32 MiB)
	SessionTTL     time.Duration `yaml:"session-ttl"`      // idle session lifetime; 0 keeps sessions forever

	// Rate limiting
	RateLimitRPS   float64 `yaml:"rate-limit-rps"`   // sustained requests per second per client (default 20)
	RateLimitBurst int     `yaml:"rate-limit-burst"` // burst capacity (default 40)

	// CORS
	CORSOrigins []string `yaml:"cors-origins"` // allowed origins (default ["*"])

	// Parsing
	Delimiter  string   `yaml:"delimiter"`   // single character; empty picks by file extension
	NullTokens []string `yaml:"null-tokens"` // cell spellings read as null; unset keeps the defaults
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		LogLevel:       "info",
		LogFormat:      "text",
		MaxUploadBytes: 32 << 20,
		SessionTTL:     30 * time.Minute,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		CORSOrigins:    []string{"*"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (when
// path is not empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from CSVVIEW_* variables. Malformed numbers and
// durations are errors rather than silently ignored.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("CSVVIEW_LISTEN_ADDR", &c.ListenAddr)
	str("CSVVIEW_LOG_LEVEL", &c.LogLevel)
	str("CSVVIEW_LOG_FORMAT", &c.LogFormat)
	str("CSVVIEW_SEQ_URL", &c.SeqURL)
	str("CSVVIEW_DELIMITER", &c.Delimiter)

	var errs []error
	if v, ok := lookup("CSVVIEW_MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("CSVVIEW_MAX_UPLOAD_BYTES: %w", err))
		}
		c.MaxUploadBytes = n
	}
	if v, ok := lookup("CSVVIEW_SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CSVVIEW_SESSION_TTL: %w", err))
		}
		c.SessionTTL = d
	}
	if v, ok := lookup("CSVVIEW_RATE_LIMIT_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("CSVVIEW_RATE_LIMIT_RPS: %w", err))
		}
		c.RateLimitRPS = f
	}
	if v, ok := lookup("CSVVIEW_RATE_LIMIT_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CSVVIEW_RATE_LIMIT_BURST: %w", err))
		}
		c.RateLimitBurst = n
	}
	if v, ok := lookup("CSVVIEW_CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("CSVVIEW_NULL_TOKENS"); ok {
		c.NullTokens = splitTokens(v)
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitTokens splits a null token list. Unlike splitList it keeps empty
// entries, so ",NA" reads empty cells as null too. An empty value is no
// tokens at all.
func splitTokens(v string) []string {
	out := []string{}
	if v == "" {
		return out
	}
	seen := make(map[string]bool)
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log-level %q must be debug, info, warn or error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log-format %q must be text or json", c.LogFormat))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen-addr must not be empty"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max-upload-bytes must be positive, got %d", c.MaxUploadBytes))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("session-ttl must not be negative, got %s", c.SessionTTL))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("rate-limit-rps must not be negative, got %g", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("rate-limit-burst must be at least 1 when rate limiting, got %d", c.RateLimitBurst))
	}
	if c.Delimiter != "" && utf8.RuneCountInString(c.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("delimiter %q must be a single character", c.Delimiter))
	}
	return errors.Join(errs...)
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ReaderOptions returns the parsing options for table loads.
func (c *Config) ReaderOptions() reader.Options {
	var opts reader.Options
	if c.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(c.Delimiter)
	}
	if c.NullTokens != nil {
		opts.NullTokens = c.NullTokens
	}
	return opts
}
