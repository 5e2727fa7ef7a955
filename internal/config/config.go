// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScraperConfig governs the fetch-and-extract pipeline.
type ScraperConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffUnitMs  int    `mapstructure:"backoff_unit_ms"`
	Fetcher        string `mapstructure:"fetcher"`

	// Derived from the integer knobs above during Load.
	RequestTimeout time.Duration
	BackoffUnit    time.Duration
}

// HeadlessConfig configures the alternate browser-backed fetcher.
type HeadlessConfig struct {
	MaxParallel   int `mapstructure:"max_parallel"`
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// RateLimitConfig throttles callers of the listing endpoint.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Fetcher kinds accepted by scraper.fetcher. "auto" fetches with Colly first
// and promotes flagged pages to the headless browser.
const (
	FetcherColly    = "colly"
	FetcherHeadless = "headless"
	FetcherAuto     = "auto"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KLEINANZEIGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Scraper.RequestTimeout = time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second
	cfg.Scraper.BackoffUnit = time.Duration(cfg.Scraper.BackoffUnitMs) * time.Millisecond

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("scraper.base_url", "https://www.kleinanzeigen.de/s-anzeige/")
	v.SetDefault("scraper.user_agent", "kleinanzeigen-api/1.0")
	v.SetDefault("scraper.timeout_seconds", 20)
	v.SetDefault("scraper.max_retries", 2)
	v.SetDefault("scraper.backoff_unit_ms", 1000)
	v.SetDefault("scraper.fetcher", FetcherColly)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url must be set")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper.max_retries must be >= 0")
	}
	if c.Scraper.BackoffUnitMs <= 0 {
		return fmt.Errorf("scraper.backoff_unit_ms must be > 0")
	}
	switch c.Scraper.Fetcher {
	case FetcherColly, FetcherHeadless, FetcherAuto:
	default:
		return fmt.Errorf("scraper.fetcher must be %q, %q or %q", FetcherColly, FetcherHeadless, FetcherAuto)
	}
	if c.Scraper.Fetcher != FetcherColly && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when the headless fetcher is selected")
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be >= 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}
