package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `{
  "data": [
    {"id": "a1", "title": "First", "article_link": "https://example.com/a1", "pub_date": "2024-03-01T10:00:00Z", "creator": "ana", "content": "plain body text"},
    {"id": "a2", "title": "Second", "pub_date": "Fri, 01 Mar 2024 10:00:00 +0000", "content": "<p>hi</p><img src=\"/rel.png\"><img src=\"https://cdn.example.com/pic.jpg\">"},
    {"id": "a1", "title": "Duplicate", "content": "dropped"},
    {"title": "No id", "pub_date": "2024-03-01 10:00:00", "content": "body", "media_url": "https://cdn.example.com/own.png"},
    {"id": "a4", "title": "  ", "content": "untitled items are skipped"}
  ]
}`

func newFeedServer(t *testing.T, status int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedSource_FetchAllParsesFeed(t *testing.T) {
	srv := newFeedServer(t, http.StatusOK, sampleFeed, nil)
	src := NewFeedSource(FeedConfig{URL: srv.URL})

	posts := src.FetchAll(context.Background())
	require.Len(t, posts, 3)

	assert.Equal(t, "a1", posts[0].ID)
	assert.Equal(t, "First", posts[0].Title)
	require.NotNil(t, posts[0].ArticleLink)
	assert.Equal(t, "https://example.com/a1", *posts[0].ArticleLink)
	require.NotNil(t, posts[0].PublicationDate)
	assert.True(t, posts[0].PublicationDate.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, posts[0].MediaURL)

	require.NotNil(t, posts[1].MediaURL)
	assert.Equal(t, "https://cdn.example.com/pic.jpg", *posts[1].MediaURL)
	require.NotNil(t, posts[1].PublicationDate)
	assert.Nil(t, posts[1].Creator)

	assert.NotEmpty(t, posts[2].ID)
	require.NotNil(t, posts[2].MediaURL)
	assert.Equal(t, "https://cdn.example.com/own.png", *posts[2].MediaURL)
	require.NotNil(t, posts[2].PublicationDate)

	stats := src.Stats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, int64(1), stats.Fetches)
	assert.Equal(t, int64(0), stats.Failures)
	assert.Equal(t, int64(3), stats.LastItems)
	assert.Empty(t, stats.LastError)
}

func TestFeedSource_FailuresBecomeEmpty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "malformed json", status: http.StatusOK, body: `{"data": [`},
		{name: "missing data", status: http.StatusOK, body: `{"items": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFeedServer(t, tt.status, tt.body, nil)
			src := NewFeedSource(FeedConfig{URL: srv.URL})

			assert.Empty(t, src.FetchAll(context.Background()))

			stats := src.Stats()
			assert.Equal(t, int64(1), stats.Failures)
			assert.NotEmpty(t, stats.LastError)
		})
	}
}

func TestFeedSource_EmptyFeedIsNotAFailure(t *testing.T) {
	srv := newFeedServer(t, http.StatusOK, `{"data": []}`, nil)
	src := NewFeedSource(FeedConfig{URL: srv.URL})

	assert.Empty(t, src.FetchAll(context.Background()))
	assert.Equal(t, int64(0), src.Stats().Failures)
}

func TestFeedSource_UnreachableHost(t *testing.T) {
	srv := newFeedServer(t, http.StatusOK, sampleFeed, nil)
	url := srv.URL
	srv.Close()

	src := NewFeedSource(FeedConfig{URL: url, Timeout: time.Second})
	assert.Empty(t, src.FetchAll(context.Background()))
	assert.Equal(t, int64(1), src.Stats().Failures)
}

func TestFeedSource_Disabled(t *testing.T) {
	src := NewFeedSource(FeedConfig{})

	assert.False(t, src.Enabled())
	assert.Nil(t, src.FetchAll(context.Background()))
	assert.Equal(t, int64(0), src.Stats().Fetches)
}

func TestFeedSource_ConcurrentCallersShareRequest(t *testing.T) {
	var hits atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)

	src := NewFeedSource(FeedConfig{URL: srv.URL})

	const callers = 10
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = len(src.FetchAll(context.Background()))
		}(i)
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), hits.Load())
	for _, n := range results {
		assert.Equal(t, 3, n)
	}
}

func TestFeedSource_CallerContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	src := NewFeedSource(FeedConfig{URL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Nil(t, src.FetchAll(ctx))
}

func TestFeedSource_ClientCredentials(t *testing.T) {
	var tokenHits atomic.Int64
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"feed-token","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenSrv.Close)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer feed-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(feedSrv.Close)

	src := NewFeedSource(FeedConfig{
		URL:          feedSrv.URL,
		TokenURL:     tokenSrv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
	})

	assert.Len(t, src.FetchAll(context.Background()), 3)
	assert.Equal(t, int64(1), tokenHits.Load())
}

func TestParsePubDate(t *testing.T) {
	assert.Nil(t, parsePubDate(""))
	assert.Nil(t, parsePubDate("yesterday"))

	got := parsePubDate("2024-03-01")
	require.NotNil(t, got)
	assert.Equal(t, 2024, got.Year())
}
