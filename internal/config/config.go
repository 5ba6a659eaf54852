package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                   string   `mapstructure:"ENV"`
	Port                  string   `mapstructure:"PORT"`
	APIBaseURL            string   `mapstructure:"API_BASE_URL"`
	HealthBaseURL         string   `mapstructure:"HEALTH_BASE_URL"`
	HTTPTimeoutSeconds    int      `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	APIRateLimitRPS       float64  `mapstructure:"API_RATE_LIMIT_RPS"`
	APIRateLimitBurst     int      `mapstructure:"API_RATE_LIMIT_BURST"`
	SessionStore          string   `mapstructure:"SESSION_STORE"`
	SessionFile           string   `mapstructure:"SESSION_FILE"`
	SessionKey            string   `mapstructure:"SESSION_KEY"`
	RedisURL              string   `mapstructure:"REDIS_URL"`
	DatabaseURL           string   `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32    `mapstructure:"DB_MIN_CONNS"`
	TokenRefreshMode      string   `mapstructure:"TOKEN_REFRESH_MODE"`
	TokenExpirySkewSecs   int      `mapstructure:"TOKEN_EXPIRY_SKEW_SECONDS"`
	PollIntervalSeconds   int      `mapstructure:"POLL_INTERVAL_SECONDS"`
	Timezone              string   `mapstructure:"TIMEZONE"`
	CORSOrigins           []string `mapstructure:"CORS_ORIGINS"`
	ArchiveEndpoint       string   `mapstructure:"RECORDING_ARCHIVE_ENDPOINT"`
	ArchiveAccessKey      string   `mapstructure:"RECORDING_ARCHIVE_ACCESS_KEY"`
	ArchiveSecretKey      string   `mapstructure:"RECORDING_ARCHIVE_SECRET_KEY"`
	ArchiveBucket         string   `mapstructure:"RECORDING_ARCHIVE_BUCKET"`
	ArchiveUseSSL         bool     `mapstructure:"RECORDING_ARCHIVE_USE_SSL"`
	TakeoverMessage       string   `mapstructure:"HANDOFF_TAKEOVER_MESSAGE"`
	DelegateMessage       string   `mapstructure:"HANDOFF_DELEGATE_MESSAGE"`
}

var keys = []string{
	"ENV", "PORT", "API_BASE_URL", "HEALTH_BASE_URL", "HTTP_TIMEOUT_SECONDS",
	"API_RATE_LIMIT_RPS", "API_RATE_LIMIT_BURST", "SESSION_STORE", "SESSION_FILE",
	"SESSION_KEY", "REDIS_URL", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"TOKEN_REFRESH_MODE", "TOKEN_EXPIRY_SKEW_SECONDS", "POLL_INTERVAL_SECONDS", "TIMEZONE",
	"CORS_ORIGINS", "RECORDING_ARCHIVE_ENDPOINT", "RECORDING_ARCHIVE_ACCESS_KEY",
	"RECORDING_ARCHIVE_SECRET_KEY", "RECORDING_ARCHIVE_BUCKET", "RECORDING_ARCHIVE_USE_SSL",
	"HANDOFF_TAKEOVER_MESSAGE", "HANDOFF_DELEGATE_MESSAGE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8010")
	v.SetDefault("API_BASE_URL", "https://service.prestigedelta.com")
	v.SetDefault("HEALTH_BASE_URL", "https://health.prestigedelta.com")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("API_RATE_LIMIT_RPS", 10)
	v.SetDefault("API_RATE_LIMIT_BURST", 20)
	v.SetDefault("SESSION_STORE", "file")
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("SESSION_KEY", "practice_console_session")
	v.SetDefault("DB_MAX_CONNS", 4)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("TOKEN_REFRESH_MODE", "always")
	v.SetDefault("TOKEN_EXPIRY_SKEW_SECONDS", 30)
	v.SetDefault("POLL_INTERVAL_SECONDS", 30)
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RECORDING_ARCHIVE_BUCKET", "encounter-recordings")
	v.SetDefault("HANDOFF_TAKEOVER_MESSAGE", "A doctor has joined the conversation and will respond shortly.")
	v.SetDefault("HANDOFF_DELEGATE_MESSAGE", "You are now chatting with our AI assistant. A doctor will review the conversation.")

	for _, k := range keys {
		v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".practice-console", "session.json")
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HTTPTimeout is the per-request bound applied to every outbound call.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) TokenExpirySkew() time.Duration {
	return time.Duration(c.TokenExpirySkewSecs) * time.Second
}

// Location resolves TIMEZONE, which is how form date-times without an offset
// are interpreted before they are sent upstream.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// ArchiveEnabled reports whether encounter recordings are copied to object
// storage before upload.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveEndpoint != ""
}

// Validate rejects configurations the console cannot start with.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"API_BASE_URL": c.APIBaseURL, "HEALTH_BASE_URL": c.HealthBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || raw == "" {
			return fmt.Errorf("%s is not a valid url: %q", name, raw)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s scheme must be http or https, got %q", name, u.Scheme)
		}
	}

	switch c.SessionStore {
	case "memory":
	case "file":
		if c.SessionFile == "" {
			return fmt.Errorf("SESSION_FILE is required when SESSION_STORE is \"file\"")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE is \"redis\"")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE is \"postgres\"")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be \"memory\", \"file\", \"redis\", or \"postgres\", got %q", c.SessionStore)
	}

	if c.TokenRefreshMode != "always" && c.TokenRefreshMode != "cached" {
		return fmt.Errorf("TOKEN_REFRESH_MODE must be \"always\" or \"cached\", got %q", c.TokenRefreshMode)
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSeconds)
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.ArchiveEnabled() && (c.ArchiveAccessKey == "" || c.ArchiveSecretKey == "") {
		return fmt.Errorf("RECORDING_ARCHIVE_ACCESS_KEY and RECORDING_ARCHIVE_SECRET_KEY are required when RECORDING_ARCHIVE_ENDPOINT is set")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	return nil
}
