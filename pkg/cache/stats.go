package cache

type counters struct {
	hits        int64
	misses      int64
	evictions   int64
	expirations int64
	populations int64
	failures    int64
	discarded   int64
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
	Populations int64 `json:"populations"`
	Failures    int64 `json:"populate_failures"`
	Discarded   int64 `json:"populate_discarded"`
	Entries     int   `json:"entries"`
	Weight      int64 `json:"weight"`
	MaxWeight   int64 `json:"max_weight"`
	InFlight    int   `json:"in_flight"`
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:        c.stats.hits,
		Misses:      c.stats.misses,
		Evictions:   c.stats.evictions,
		Expirations: c.stats.expirations,
		Populations: c.stats.populations,
		Failures:    c.stats.failures,
		Discarded:   c.stats.discarded,
		Entries:     c.lru.Len(),
		Weight:      c.weight,
		MaxWeight:   c.maxWeight,
		InFlight:    len(c.inflight),
	}
}
