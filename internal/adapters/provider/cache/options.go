package cache

import "time"

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithMaxSize bounds the number of cached match details. Values <= 0 disable
// caching; calls pass straight through.
func WithMaxSize(maxSize int) Option {
	return func(c *Cache) {
		c.maxSize = maxSize
	}
}

// WithFetchTimeout bounds a shared upstream fetch. It runs apart from the
// callers' contexts, so this is its only deadline.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}
