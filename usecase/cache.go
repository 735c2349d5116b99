package usecase

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-posts/core/config"
	domainCache "github.com/AzielCF/az-posts/domains/cache"
	"github.com/AzielCF/az-posts/pkg/cache"
	postsInfra "github.com/AzielCF/az-posts/posts/infrastructure"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// feedStatser is satisfied by postsInfra.FeedSource.
type feedStatser interface {
	Stats() postsInfra.FeedStats
}

type cacheService struct {
	cache *cache.Cache
	feed  feedStatser
}

// NewCacheService exposes the post cache for administration. feed may be nil.
func NewCacheService(c *cache.Cache, feed feedStatser) domainCache.ICacheUsecase {
	return &cacheService{cache: c, feed: feed}
}

func (s *cacheService) GetStats(ctx context.Context) (domainCache.CacheStats, error) {
	st := s.cache.Stats()

	stats := domainCache.CacheStats{
		Hits:        st.Hits,
		Misses:      st.Misses,
		HitRatio:    humanize.FormatFloat("#,###.##", st.HitRatio()*100) + "%",
		Evictions:   st.Evictions,
		Expirations: st.Expirations,
		Populations: st.Populations,
		Failures:    st.Failures,
		Discarded:   st.Discarded,
		Entries:     st.Entries,
		Weight:      st.Weight,
		MaxWeight:   st.MaxWeight,
		HumanWeight: fmt.Sprintf("%s / %s", humanize.Comma(st.Weight), humanize.Comma(st.MaxWeight)),
		InFlight:    st.InFlight,
	}

	if s.feed != nil {
		fs := s.feed.Stats()
		stats.Remote = domainCache.RemoteStats{
			Enabled:     fs.Enabled,
			Fetches:     fs.Fetches,
			Failures:    fs.Failures,
			LastItems:   fs.LastItems,
			LastError:   fs.LastError,
			LastFetchAt: fs.LastFetchAt,
		}
		if !fs.LastFetchAt.IsZero() {
			stats.Remote.LastFetchHuman = humanize.Time(fs.LastFetchAt)
		}
	}

	return stats, nil
}

func (s *cacheService) Clear(ctx context.Context) error {
	before := s.cache.Len()
	s.cache.Purge()
	logrus.Infof("[CACHE] cleared %s entries", humanize.Comma(int64(before)))
	return nil
}

func (s *cacheService) GetSettings(ctx context.Context) (map[string]any, error) {
	return config.GetAllSettings(), nil
}
