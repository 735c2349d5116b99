package cache

import "time"

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithMaxWeight bounds the total weight of resident entries.
// Zero or negative disables the bound.
func WithMaxWeight(weight int64) Option {
	return func(c *Cache) {
		c.maxWeight = weight
	}
}

// WithCleanupInterval sets how often the janitor sweeps expired entries.
// Zero or negative disables the janitor; expired entries are then only
// dropped lazily on access or under weight pressure.
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Cache) {
		c.interval = interval
	}
}

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
