package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overlays GOALCAL_* environment variables onto c. Unparseable
// values are logged and ignored.
//
// Environment variables:
//   - GOALCAL_PROVIDER, GOALCAL_ENDPOINT, GOALCAL_MODEL
//   - GOALCAL_API_KEY (falls back to DEEPSEEK_API_KEY or ANTHROPIC_API_KEY
//     depending on the provider)
//   - GOALCAL_TEMPERATURE, GOALCAL_MAX_TOKENS, GOALCAL_REQUEST_TIMEOUT,
//     GOALCAL_MAX_RETRIES, GOALCAL_RATE_LIMIT_PER_MINUTE
//   - GOALCAL_DATABASE_PATH, GOALCAL_HISTORY_LIMIT
//   - GOALCAL_TIMEZONE, GOALCAL_EXPORT_DIR
//   - GOALCAL_LISTEN_ADDR, GOALCAL_ALLOWED_ORIGINS (comma separated)
func (c *Config) ApplyEnv() {
	parseEnvString("GOALCAL_PROVIDER", &c.Provider)
	parseEnvString("GOALCAL_ENDPOINT", &c.Endpoint)
	parseEnvString("GOALCAL_MODEL", &c.Model)
	parseEnvString("GOALCAL_API_KEY", &c.APIKey)
	parseEnvFloat("GOALCAL_TEMPERATURE", &c.Temperature)
	parseEnvInt("GOALCAL_MAX_TOKENS", &c.MaxTokens)
	parseEnvDuration("GOALCAL_REQUEST_TIMEOUT", &c.RequestTimeout)
	parseEnvInt("GOALCAL_MAX_RETRIES", &c.MaxRetries)
	parseEnvInt("GOALCAL_RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	parseEnvString("GOALCAL_DATABASE_PATH", &c.DatabasePath)
	parseEnvInt("GOALCAL_HISTORY_LIMIT", &c.HistoryLimit)
	parseEnvString("GOALCAL_TIMEZONE", &c.Timezone)
	parseEnvString("GOALCAL_EXPORT_DIR", &c.ExportDir)
	parseEnvString("GOALCAL_LISTEN_ADDR", &c.ListenAddr)
	parseEnvList("GOALCAL_ALLOWED_ORIGINS", &c.AllowedOrigins)

	if c.APIKey == "" {
		switch c.Provider {
		case ProviderDeepSeek:
			parseEnvString("DEEPSEEK_API_KEY", &c.APIKey)
		case ProviderAnthropic:
			parseEnvString("ANTHROPIC_API_KEY", &c.APIKey)
		}
	}
}

func parseEnvInt(key string, dest *int) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring invalid environment value", "key", key, "value", value, "error", err)
		return
	}
	*dest = parsed
}

func parseEnvFloat(key string, dest *float64) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("ignoring invalid environment value", "key", key, "value", value, "error", err)
		return
	}
	*dest = parsed
}

func parseEnvDuration(key string, dest *time.Duration) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("ignoring invalid environment value", "key", key, "value", value, "error", err)
		return
	}
	*dest = parsed
}

func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}

func parseEnvList(key string, dest *[]string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dest = out
}
