package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxWeight       int64 = 1024
	DefaultCleanupInterval       = 1 * time.Minute
)

// EntryOptions controls how a single entry is accounted and expired.
// A zero Sliding or Absolute disables that expiration.
type EntryOptions struct {
	Weight   int64
	Sliding  time.Duration
	Absolute time.Duration
}

type entry struct {
	key        string
	value      any
	weight     int64
	sliding    time.Duration
	lastAccess time.Time
	absoluteAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	if !e.absoluteAt.IsZero() && !now.Before(e.absoluteAt) {
		return true
	}
	return e.sliding > 0 && now.Sub(e.lastAccess) >= e.sliding
}

// Cache is an in-process key/value store bounded by total entry weight.
// Entries expire on a sliding window and on an absolute ceiling; when the
// weight bound is exceeded the least recently used entries are evicted.
// Misses can be populated through GetOrPopulate, which runs at most one
// populate per key at a time.
type Cache struct {
	mu        sync.Mutex
	items     map[string]*list.Element
	lru       *list.List // front = most recently used
	weight    int64
	maxWeight int64
	inflight  map[string]*call
	stats     counters

	interval time.Duration
	now      func() time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a Cache. The janitor goroutine is started when the cleanup
// interval is positive; call Close to stop it.
func New(opts ...Option) *Cache {
	c := &Cache{
		items:     make(map[string]*list.Element),
		lru:       list.New(),
		maxWeight: DefaultMaxWeight,
		inflight:  make(map[string]*call),
		interval:  DefaultCleanupInterval,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startJanitor()
	return c
}

// Get returns the value stored under key if present and unexpired.
// A hit refreshes the sliding expiration and the LRU position.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.getLocked(key)
	if ok {
		c.stats.hits++
	} else {
		c.stats.misses++
	}
	return v, ok
}

// Set stores value under key, replacing any previous value and resetting its
// expiration clocks. A Set racing an in-flight populate for the same key wins:
// the populate result is returned to its callers but not stored.
func (c *Cache) Set(key string, value any, opts EntryOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateInflightLocked(key)
	c.setLocked(key, value, opts)
}

// Update atomically replaces the value under key with fn(current). It only
// applies when key is present and unexpired and fn returns true; the entry is
// rewritten with fresh expiration. It reports whether a write happened.
func (c *Cache) Update(key string, fn func(current any) (any, bool), opts EntryOptions) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateInflightLocked(key)

	current, ok := c.getLocked(key)
	if !ok {
		return false
	}
	next, write := fn(current)
	if !write {
		return false
	}
	c.setLocked(key, next, opts)
	return true
}

// Remove deletes key if present.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidateInflightLocked(key)
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Purge drops every entry. In-flight populates finish but are not stored.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.inflight {
		c.invalidateInflightLocked(key)
	}
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.weight = 0
}

// Len returns the number of resident entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Close stops the janitor. The cache stays usable afterwards.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

func (c *Cache) getLocked(key string) (any, bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := el.Value.(*entry)
	now := c.now()
	if ent.expired(now) {
		c.removeElement(el)
		c.stats.expirations++
		return nil, false
	}
	ent.lastAccess = now
	c.lru.MoveToFront(el)
	return ent.value, true
}

func (c *Cache) setLocked(key string, value any, opts EntryOptions) {
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}

	weight := opts.Weight
	if weight < 0 {
		weight = 0
	}
	if c.maxWeight > 0 && weight > c.maxWeight {
		logrus.Debugf("[CACHE] entry %s (weight %d) exceeds capacity %d, not stored", key, weight, c.maxWeight)
		return
	}

	now := c.now()
	ent := &entry{
		key:        key,
		value:      value,
		weight:     weight,
		sliding:    opts.Sliding,
		lastAccess: now,
	}
	if opts.Absolute > 0 {
		ent.absoluteAt = now.Add(opts.Absolute)
	}

	c.items[key] = c.lru.PushFront(ent)
	c.weight += weight
	c.evictLocked()
}

// evictLocked drops entries from the LRU tail until the weight bound holds.
// Expired entries are dropped first since they are dead weight.
func (c *Cache) evictLocked() {
	if c.maxWeight <= 0 || c.weight <= c.maxWeight {
		return
	}
	c.removeExpiredLocked(c.now())
	for c.weight > c.maxWeight {
		el := c.lru.Back()
		if el == nil {
			return
		}
		ent := el.Value.(*entry)
		c.removeElement(el)
		c.stats.evictions++
		logrus.Debugf("[CACHE] evicted %s", ent.key)
	}
}

func (c *Cache) removeExpiredLocked(now time.Time) int {
	removed := 0
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*entry).expired(now) {
			c.removeElement(el)
			c.stats.expirations++
			removed++
		}
		el = prev
	}
	return removed
}

func (c *Cache) removeElement(el *list.Element) {
	ent := el.Value.(*entry)
	c.lru.Remove(el)
	delete(c.items, ent.key)
	c.weight -= ent.weight
}
