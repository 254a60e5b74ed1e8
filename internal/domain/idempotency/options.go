package idempotency

// Option configures a Cache.
type Option func(*Cache)

// WithMaxSize bounds the number of remembered keys. Non-positive values keep
// the default of 10000.
func WithMaxSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}
