package reconcile

import (
	"time"

	"github.com/okian/tournify/pkg/logger"
)

// Default reconciliation parameters.
const (
	DefaultThreshold      = 0.70
	DefaultLookback       = 30 * 24 * time.Hour
	DefaultFetchTimeout   = 5 * time.Second
	DefaultMaxConcurrency = 16
	DefaultMaxRosterSize  = 50
)

// Option applies a configuration option to the Reconciler.
type Option func(*Reconciler)

// WithThreshold sets the roster fraction that confirms a match. Values outside (0,1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(r *Reconciler) {
		if threshold > 0 && threshold <= 1 {
			r.threshold = threshold
		}
	}
}

// WithLookback sets the player history window.
func WithLookback(window time.Duration) Option {
	return func(r *Reconciler) {
		if window > 0 {
			r.lookback = window
		}
	}
}

// WithFetchTimeout bounds each player history fetch.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(r *Reconciler) {
		if timeout > 0 {
			r.fetchTimeout = timeout
		}
	}
}

// WithMaxConcurrency bounds in-flight history fetches per call.
func WithMaxConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxConcurrency = n
		}
	}
}

// WithMaxRosterSize rejects rosters larger than n. n <= 0 removes the bound.
func WithMaxRosterSize(n int) Option {
	return func(r *Reconciler) {
		r.maxRosterSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}
