package service

import (
	"time"

	"github.com/okian/tournify/internal/domain/provider"
	"github.com/okian/tournify/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProvider injects the match data provider. When unset, Start dials the
// HTTP provider at the configured URL.
func WithProvider(p provider.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithProviderURL sets the base URL of the HTTP provider.
func WithProviderURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.providerURL = url
		}
	}
}

// WithProviderAPIKey sets the Authorization header sent to the provider.
func WithProviderAPIKey(key string) Option {
	return func(s *Service) { s.providerAPIKey = key }
}

// WithProviderTimeout bounds each outbound fetch.
func WithProviderTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.providerTimeout = d
		}
	}
}

// WithProviderRetries bounds retries at the transport boundary.
func WithProviderRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.providerRetries = n
		}
	}
}

// WithProviderRateLimit shapes outbound traffic.
func WithProviderRateLimit(perSec float64, burst int) Option {
	return func(s *Service) {
		s.providerRate = perSec
		s.providerBurst = burst
	}
}

// WithThreshold sets the match confirmation threshold.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithLookback sets the player history window.
func WithLookback(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.lookback = window
		}
	}
}

// WithStartTimeTolerance sets the start time check tolerance.
func WithStartTimeTolerance(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.tolerance = d
		}
	}
}

// WithMaxConcurrentFetches bounds the history fan-out of one request.
func WithMaxConcurrentFetches(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithMaxRosterSize rejects larger rosters.
func WithMaxRosterSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRosterSize = n
		}
	}
}

// WithDetailsCacheSize bounds the match details cache. 0 disables it.
func WithDetailsCacheSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.cacheSize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
