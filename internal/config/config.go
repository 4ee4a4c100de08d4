// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Flat snake_case keys shared by the YAML file and TOURNIFY_ env vars.
// - New() builds a Config with defaults; Load layers file and env on top.
package config

import (
	"fmt"
	"time"

	"github.com/okian/tournify/internal/domain/model"
)

// Config contains process configuration for the API server and the mock provider.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ProviderURL is the base URL of the match data provider.
	ProviderURL string `koanf:"provider_url"`

	// ProviderAPIKey is sent as the Authorization header when set.
	ProviderAPIKey string `koanf:"provider_api_key"`

	// ProviderTimeoutMS bounds a single outbound fetch.
	ProviderTimeoutMS int `koanf:"provider_timeout_ms"`

	// ProviderMaxRetries bounds retries of transient provider failures.
	ProviderMaxRetries int `koanf:"provider_max_retries"`

	// ProviderRatePerSec and ProviderBurst shape outbound traffic.
	ProviderRatePerSec float64 `koanf:"provider_rate_per_sec"`
	ProviderBurst      int     `koanf:"provider_burst"`

	// LookbackDays is the player history window.
	LookbackDays int `koanf:"lookback_days"`

	// MatchThreshold is the roster fraction needed to confirm a match.
	MatchThreshold float64 `koanf:"match_threshold"`

	// StartTimeToleranceSec is the allowed drift on the start time check.
	StartTimeToleranceSec int `koanf:"start_time_tolerance_sec"`

	// MaxConcurrentFetches bounds the history fan-out of one request.
	MaxConcurrentFetches int `koanf:"max_concurrent_fetches"`

	// MaxRosterSize rejects oversized rosters.
	MaxRosterSize int `koanf:"max_roster_size"`

	// DetailsCacheSize bounds the match details cache; 0 disables it.
	DetailsCacheSize int `koanf:"details_cache_size"`

	// RateLimitPerMinute is the inbound per-IP limit; 0 disables it.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// Env form is comma separated; empty disables CORS handling.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Mock provider settings.
	MockAddr          string `koanf:"mock_addr"`
	MockSeed          int64  `koanf:"mock_seed"`
	MockSharedMatchID string `koanf:"mock_shared_match_id"`
	MockLatencyMinMS  int    `koanf:"mock_latency_min_ms"`
	MockLatencyMaxMS  int    `koanf:"mock_latency_max_ms"`

	// MockSharedMap and MockSharedStartTime pin the shared match; empty means generated.
	MockSharedMap       string `koanf:"mock_shared_map"`
	MockSharedStartTime string `koanf:"mock_shared_start_time"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		ProviderURL:           "http://localhost:8001",
		ProviderTimeoutMS:     5000,
		ProviderMaxRetries:    2,
		ProviderRatePerSec:    20,
		ProviderBurst:         10,
		LookbackDays:          30,
		MatchThreshold:        0.70,
		StartTimeToleranceSec: 300,
		MaxConcurrentFetches:  16,
		MaxRosterSize:         50,
		DetailsCacheSize:      1024,
		RateLimitPerMinute:    120,
		CORSAllowedOrigins:    []string{"*"},
		MockAddr:              ":8001",
		MockSeed:              42,
		MockSharedMatchID:     "test_match_123",
	}
}

// Lookback returns the history window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// ProviderTimeout returns the per-fetch timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutMS) * time.Millisecond
}

// StartTimeTolerance returns the start time check tolerance.
func (c *Config) StartTimeTolerance() time.Duration {
	return time.Duration(c.StartTimeToleranceSec) * time.Second
}

// MockLatency returns the simulated mock provider latency bounds.
func (c *Config) MockLatency() (time.Duration, time.Duration) {
	return time.Duration(c.MockLatencyMinMS) * time.Millisecond,
		time.Duration(c.MockLatencyMaxMS) * time.Millisecond
}

// MockSharedStart parses MockSharedStartTime. A zone-less timestamp is read as UTC.
func (c *Config) MockSharedStart() (time.Time, error) {
	if c.MockSharedStartTime == "" {
		return time.Time{}, nil
	}
	return model.ParseTime(c.MockSharedStartTime)
}

// Validate checks the values Load cannot default its way out of.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ProviderURL == "":
		return fmt.Errorf("%w: provider_url must not be empty", ErrInvalidConfig)
	case c.MatchThreshold <= 0 || c.MatchThreshold > 1:
		return fmt.Errorf("%w: match_threshold must be in (0,1], got %v", ErrInvalidConfig, c.MatchThreshold)
	case c.LookbackDays <= 0:
		return fmt.Errorf("%w: lookback_days must be positive, got %d", ErrInvalidConfig, c.LookbackDays)
	case c.StartTimeToleranceSec < 0:
		return fmt.Errorf("%w: start_time_tolerance_sec must not be negative", ErrInvalidConfig)
	case c.MaxRosterSize <= 0:
		return fmt.Errorf("%w: max_roster_size must be positive, got %d", ErrInvalidConfig, c.MaxRosterSize)
	case c.ProviderTimeoutMS <= 0:
		return fmt.Errorf("%w: provider_timeout_ms must be positive", ErrInvalidConfig)
	case c.ProviderMaxRetries < 0:
		return fmt.Errorf("%w: provider_max_retries must not be negative", ErrInvalidConfig)
	case c.MockLatencyMaxMS < c.MockLatencyMinMS:
		return fmt.Errorf("%w: mock_latency_max_ms below mock_latency_min_ms", ErrInvalidConfig)
	}
	if _, err := c.MockSharedStart(); err != nil {
		return fmt.Errorf("%w: mock_shared_start_time: %w", ErrInvalidConfig, err)
	}
	return nil
}
