package cache

import (
	"context"
	"time"
)

// CacheStats describes the post cache and the remote seed feed.
type CacheStats struct {
	Hits        int64       `json:"hits"`
	Misses      int64       `json:"misses"`
	HitRatio    string      `json:"hit_ratio"`
	Evictions   int64       `json:"evictions"`
	Expirations int64       `json:"expirations"`
	Populations int64       `json:"populations"`
	Failures    int64       `json:"populate_failures"`
	Discarded   int64       `json:"populate_discarded"`
	Entries     int         `json:"entries"`
	Weight      int64       `json:"weight"`
	MaxWeight   int64       `json:"max_weight"`
	HumanWeight string      `json:"human_weight"`
	InFlight    int         `json:"in_flight"`
	Remote      RemoteStats `json:"remote"`
}

// RemoteStats reports the health of the remote seed feed.
type RemoteStats struct {
	Enabled        bool      `json:"enabled"`
	Fetches        int64     `json:"fetches"`
	Failures       int64     `json:"failures"`
	LastItems      int64     `json:"last_items"`
	LastError      string    `json:"last_error,omitempty"`
	LastFetchAt    time.Time `json:"last_fetch_at,omitempty"`
	LastFetchHuman string    `json:"last_fetch_human,omitempty"`
}

type ICacheUsecase interface {
	GetStats(ctx context.Context) (CacheStats, error)
	Clear(ctx context.Context) error
	GetSettings(ctx context.Context) (map[string]any, error)
}
