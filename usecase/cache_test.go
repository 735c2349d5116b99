package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-posts/pkg/cache"
	postsInfra "github.com/AzielCF/az-posts/posts/infrastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeed struct {
	stats postsInfra.FeedStats
}

func (s stubFeed) Stats() postsInfra.FeedStats { return s.stats }

func TestCacheService_GetStats(t *testing.T) {
	c := cache.New(cache.WithCleanupInterval(0), cache.WithMaxWeight(2000))
	t.Cleanup(c.Close)

	c.Set("post:a", "a", cache.EntryOptions{Weight: 1500})
	_, _ = c.Get("post:a")
	_, _ = c.Get("post:missing")

	feed := stubFeed{stats: postsInfra.FeedStats{
		Enabled:     true,
		Fetches:     3,
		Failures:    1,
		LastError:   "unexpected status 502",
		LastFetchAt: time.Now().Add(-2 * time.Minute),
	}}

	svc := NewCacheService(c, feed)
	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, "50.00%", stats.HitRatio)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, "1,500 / 2,000", stats.HumanWeight)
	assert.Equal(t, int64(1), stats.Remote.Failures)
	assert.Equal(t, "unexpected status 502", stats.Remote.LastError)
	assert.Equal(t, "2 minutes ago", stats.Remote.LastFetchHuman)
}

func TestCacheService_Clear(t *testing.T) {
	c := cache.New(cache.WithCleanupInterval(0))
	t.Cleanup(c.Close)
	c.Set("post:a", "a", cache.EntryOptions{Weight: 1})

	svc := NewCacheService(c, nil)
	require.NoError(t, svc.Clear(context.Background()))

	assert.Equal(t, 0, c.Len())
	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.Remote.Enabled)
}
