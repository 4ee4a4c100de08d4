package httpclient

import (
	"math"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/okian/tournify/pkg/logger"
)

// Default client settings.
const (
	defaultTimeout    = 5 * time.Second
	defaultMaxRetries = 2
	defaultRate       = 20
	defaultBurst      = 10
	defaultBackoff    = 100 * time.Millisecond
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithAPIKey sets the Authorization header value.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout bounds each HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries bounds retries of transient failures. 0 disables retrying.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialBackoff sets the first retry delay.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialBackoff = d
		}
	}
}

// WithRateLimit shapes outbound requests. perSec <= 0 disables limiting.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// RetryBudget is the longest a call can take with the given per-attempt
// timeout and retry count under the default backoff: every attempt plus the
// largest randomized wait before each retry.
func RetryBudget(timeout time.Duration, retries int) time.Duration {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if retries < 0 {
		retries = 0
	}
	budget := timeout * time.Duration(retries+1)
	wait := float64(defaultBackoff)
	for i := 0; i < retries; i++ {
		w := math.Min(wait, float64(backoff.DefaultMaxInterval))
		budget += time.Duration(w * (1 + backoff.DefaultRandomizationFactor))
		wait *= backoff.DefaultMultiplier
	}
	return budget
}
