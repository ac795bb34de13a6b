// Package config resolves goalcal settings from defaults, a YAML file and
// GOALCAL_* environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must validate on hosts without zoneinfo
)

// Provider names a generation backend
const (
	ProviderDeepSeek  = "deepseek"
	ProviderAnthropic = "anthropic"
)

// Config holds every tunable setting
type Config struct {
	// Provider selects the generation backend: "deepseek" (any OpenAI-style
	// chat completions endpoint) or "anthropic"
	// Default: deepseek
	Provider string `yaml:"provider"`

	// Endpoint overrides the chat completions URL (deepseek provider only)
	Endpoint string `yaml:"endpoint,omitempty"`

	// Model overrides the provider's default model
	Model string `yaml:"model,omitempty"`

	// APIKey is the bearer credential. Prefer the environment over the file.
	APIKey string `yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature
	// Default: 0.7, Range: 0-2
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the reply length
	// Default: 6000, Range: 256-32000
	MaxTokens int `yaml:"max_tokens"`

	// RequestTimeout bounds each generation attempt
	// Default: 60s, Range: 1s-10m
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxRetries is how many times a transient failure is retried
	// Default: 0, Range: 0-5
	MaxRetries int `yaml:"max_retries"`

	// RateLimitPerMinute caps generation requests; 0 disables the limit
	// Default: 10, Range: 0-600
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// DatabasePath is the SQLite file holding plan history
	// Default: $XDG_DATA_HOME/goalcal/goalcal.db
	DatabasePath string `yaml:"database_path"`

	// HistoryLimit is how many plans are kept
	// Default: 20, Range: 1-1000
	HistoryLimit int `yaml:"history_limit"`

	// Timezone is the zone schedule times are read in when exporting
	// Default: Asia/Shanghai
	Timezone string `yaml:"timezone"`

	// ExportDir is where calendar files are written
	// Default: current directory
	ExportDir string `yaml:"export_dir"`

	// ListenAddr is the HTTP API bind address
	// Default: 127.0.0.1:8787
	ListenAddr string `yaml:"listen_addr"`

	// AllowedOrigins are CORS origins accepted by the HTTP API
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Provider:           ProviderDeepSeek,
		Temperature:        0.7,
		MaxTokens:          6000,
		RequestTimeout:     60 * time.Second,
		MaxRetries:         0,
		RateLimitPerMinute: 10,
		DatabasePath:       DefaultDatabasePath(),
		HistoryLimit:       20,
		Timezone:           "Asia/Shanghai",
		ExportDir:          ".",
		ListenAddr:         "127.0.0.1:8787",
		AllowedOrigins:     []string{"http://localhost:3000"},
	}
}

// Load resolves the configuration. path names a YAML file; if empty, the
// default config path is used when it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if c.Provider != ProviderDeepSeek && c.Provider != ProviderAnthropic {
		return fmt.Errorf("provider must be %q or %q (got %q)", ProviderDeepSeek, ProviderAnthropic, c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2 (got %g)", c.Temperature)
	}
	if c.MaxTokens < 256 || c.MaxTokens > 32000 {
		return fmt.Errorf("max_tokens must be between 256 and 32000 (got %d)", c.MaxTokens)
	}
	if c.RequestTimeout < time.Second || c.RequestTimeout > 10*time.Minute {
		return fmt.Errorf("request_timeout must be between 1s and 10m (got %v)", c.RequestTimeout)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 5 {
		return fmt.Errorf("max_retries must be between 0 and 5 (got %d)", c.MaxRetries)
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitPerMinute > 600 {
		return fmt.Errorf("rate_limit_per_minute must be between 0 and 600 (got %d)", c.RateLimitPerMinute)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.HistoryLimit < 1 || c.HistoryLimit > 1000 {
		return fmt.Errorf("history_limit must be between 1 and 1000 (got %d)", c.HistoryLimit)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil || c.Timezone == "" {
		return fmt.Errorf("timezone %q is not a known IANA zone", c.Timezone)
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("listen_addr %q: %w", c.ListenAddr, err)
	}
	return nil
}

// String returns a human-readable representation with the API key redacted
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Provider: %s, Endpoint: %q, Model: %q, APIKey: %s, Temperature: %g, "+
			"MaxTokens: %d, RequestTimeout: %v, MaxRetries: %d, RateLimit: %d/min, "+
			"DatabasePath: %s, HistoryLimit: %d, Timezone: %s, ExportDir: %s, ListenAddr: %s}",
		c.Provider, c.Endpoint, c.Model, RedactKey(c.APIKey), c.Temperature,
		c.MaxTokens, c.RequestTimeout, c.MaxRetries, c.RateLimitPerMinute,
		c.DatabasePath, c.HistoryLimit, c.Timezone, c.ExportDir, c.ListenAddr,
	)
}

// RedactKey keeps only the last four characters of a credential
func RedactKey(key string) string {
	switch {
	case key == "":
		return "(unset)"
	case len(key) <= 4:
		return "****"
	default:
		return "****" + key[len(key)-4:]
	}
}

// DefaultConfigPath is $XDG_CONFIG_HOME/goalcal/config.yaml
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if d, err := os.UserConfigDir(); err == nil {
			dir = d
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "goalcal", "config.yaml")
}

// DefaultDatabasePath is $XDG_DATA_HOME/goalcal/goalcal.db, falling back to
// ~/.local/share
func DefaultDatabasePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "goalcal", "goalcal.db")
}
