package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg := Default()

	assert.Equal(t, ProviderDeepSeek, cfg.Provider)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 6000, cfg.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, "Asia/Shanghai", cfg.Timezone)
	assert.Equal(t, filepath.Join("/data", "goalcal", "goalcal.db"), cfg.DatabasePath)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "gpt" }, "provider"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "temperature"},
		{"max tokens too small", func(c *Config) { c.MaxTokens = 10 }, "max_tokens"},
		{"timeout too short", func(c *Config) { c.RequestTimeout = time.Millisecond }, "request_timeout"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"rate limit too high", func(c *Config) { c.RateLimitPerMinute = 1000 }, "rate_limit_per_minute"},
		{"empty database path", func(c *Config) { c.DatabasePath = " " }, "database_path"},
		{"zero history", func(c *Config) { c.HistoryLimit = 0 }, "history_limit"},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"empty timezone", func(c *Config) { c.Timezone = "" }, "timezone"},
		{"bad listen addr", func(c *Config) { c.ListenAddr = "8787" }, "listen_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, c *Config)
	}{
		{
			name:    "no overrides",
			envVars: map[string]string{},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 6000, c.MaxTokens)
				assert.Empty(t, c.APIKey)
			},
		},
		{
			name: "typed overrides",
			envVars: map[string]string{
				"GOALCAL_TEMPERATURE":     "0.2",
				"GOALCAL_MAX_TOKENS":      "4000",
				"GOALCAL_REQUEST_TIMEOUT": "90s",
				"GOALCAL_HISTORY_LIMIT":   "50",
				"GOALCAL_ALLOWED_ORIGINS": "http://a.test, ,http://b.test",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 0.2, c.Temperature)
				assert.Equal(t, 4000, c.MaxTokens)
				assert.Equal(t, 90*time.Second, c.RequestTimeout)
				assert.Equal(t, 50, c.HistoryLimit)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.AllowedOrigins)
			},
		},
		{
			name: "invalid values are ignored",
			envVars: map[string]string{
				"GOALCAL_MAX_TOKENS":      "lots",
				"GOALCAL_TEMPERATURE":     "warm",
				"GOALCAL_REQUEST_TIMEOUT": "a minute",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 6000, c.MaxTokens)
				assert.Equal(t, 0.7, c.Temperature)
				assert.Equal(t, 60*time.Second, c.RequestTimeout)
			},
		},
		{
			name:    "deepseek key fallback",
			envVars: map[string]string{"DEEPSEEK_API_KEY": "sk-deep"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "sk-deep", c.APIKey)
			},
		},
		{
			name: "anthropic key fallback follows provider",
			envVars: map[string]string{
				"GOALCAL_PROVIDER":  "anthropic",
				"DEEPSEEK_API_KEY":  "sk-deep",
				"ANTHROPIC_API_KEY": "sk-ant",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "sk-ant", c.APIKey)
			},
		},
		{
			name: "explicit key wins",
			envVars: map[string]string{
				"GOALCAL_API_KEY":  "sk-own",
				"DEEPSEEK_API_KEY": "sk-deep",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "sk-own", c.APIKey)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"GOALCAL_API_KEY", "DEEPSEEK_API_KEY", "ANTHROPIC_API_KEY", "GOALCAL_PROVIDER"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := Default()
			cfg.ApplyEnv()
			tt.check(t, cfg)
		})
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "provider: anthropic\nmax_tokens: 8000\nrequest_timeout: 2m\ntimezone: Europe/Berlin\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("GOALCAL_MAX_TOKENS", "7000")
	t.Setenv("GOALCAL_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, 7000, cfg.MaxTokens)
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	// Keys missing from the file keep their defaults
	assert.Equal(t, 20, cfg.HistoryLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// The default path is optional
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderDeepSeek, cfg.Provider)

	// An explicit path is not
	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history_limit: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history_limit")
}

func TestSaveFile_OmitsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.APIKey = "sk-secret"
	cfg.HistoryLimit = 42

	require.NoError(t, cfg.SaveFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")

	loaded := Default()
	require.NoError(t, loaded.LoadFile(path))
	assert.Equal(t, 42, loaded.HistoryLimit)
	assert.Equal(t, cfg.RequestTimeout, loaded.RequestTimeout)
	assert.Equal(t, "sk-secret", cfg.APIKey)
}

func TestString_RedactsKey(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-abcdef123456"

	s := cfg.String()
	assert.NotContains(t, s, "sk-abcdef")
	assert.Contains(t, s, "****3456")

	assert.Equal(t, "(unset)", RedactKey(""))
	assert.Equal(t, "****", RedactKey("abc"))
}
