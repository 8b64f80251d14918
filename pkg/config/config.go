package config

import (
	"time"

	"github.com/Proton-105/buda-bot/pkg/redis"
)

// Config holds runtime configuration for the Buda ticker bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Log       LogConfig       `mapstructure:"log"`
	Bot       BotConfig       `mapstructure:"bot"`
	Market    MarketConfig    `mapstructure:"market"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     redis.Config    `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

// LogConfig controls the slog handler chain.
type LogConfig struct {
	Level  string        `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string        `mapstructure:"format" validate:"oneof=json text"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables a rotating log file next to stdout output. An empty Path disables it.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// Update delivery modes.
const (
	BotModePolling = "polling"
	BotModeWebhook = "webhook"
)

// BotConfig configures the Telegram side of the application.
type BotConfig struct {
	Token      string        `mapstructure:"token" validate:"required"`
	Mode       string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	// WebhookListen is the local address the webhook poller binds to.
	WebhookListen   string `mapstructure:"webhook_listen"`
	ReplyOnError    bool   `mapstructure:"reply_on_error"`
	DefaultLanguage string `mapstructure:"default_language" validate:"required"`
	// Offline skips every Telegram API call at startup; used for dry runs and tests.
	Offline bool `mapstructure:"offline"`
}

// MarketConfig configures the Buda market-data client.
type MarketConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// ServerConfig configures the operational HTTP server exposing metrics and health.
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            string        `mapstructure:"port" validate:"required_if=Enabled true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// RateLimitRule describes a limit within a time window, e.g. 20 per "1m".
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

// CommandRateLimits holds per-command overrides.
type CommandRateLimits struct {
	Price RateLimitRule `mapstructure:"price"`
}

// RateLimitConfig configures per-user throttling of incoming updates.
type RateLimitConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	PerUser         RateLimitRule     `mapstructure:"per_user"`
	Commands        CommandRateLimits `mapstructure:"commands"`
	Whitelist       []int64           `mapstructure:"whitelist"`
	CleanupInterval time.Duration     `mapstructure:"cleanup_interval"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	LogLevel    string  `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// RedisEnabled reports whether a Redis address has been configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
