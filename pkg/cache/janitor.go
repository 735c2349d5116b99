package cache

import (
	"time"

	"github.com/sirupsen/logrus"
)

func (c *Cache) startJanitor() {
	if c.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := c.DeleteExpired(); n > 0 {
					logrus.Debugf("[CACHE] janitor removed %d expired entries", n)
				}
			case <-c.stopCh:
				return
			}
		}
	}()
}

// DeleteExpired removes every expired entry and returns how many were dropped.
func (c *Cache) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeExpiredLocked(c.now())
}
