package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AzielCF/az-posts/posts/domain"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	defaultFeedTimeout = 15 * time.Second
	maxFeedBodyBytes   = 10 << 20
)

var pubDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FeedConfig points FeedSource at a JSON feed. When TokenURL is set the
// requests are authorized with an OAuth2 client credentials token.
type FeedConfig struct {
	URL          string
	Timeout      time.Duration
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// FeedStats reports how the remote feed has behaved since start.
type FeedStats struct {
	Enabled     bool      `json:"enabled"`
	Fetches     int64     `json:"fetches"`
	Failures    int64     `json:"failures"`
	LastItems   int64     `json:"last_items"`
	LastError   string    `json:"last_error,omitempty"`
	LastFetchAt time.Time `json:"last_fetch_at,omitempty"`
}

// FeedSource reads seed posts from a remote `{"data": [...]}` document.
// Failures are logged and counted, never returned.
type FeedSource struct {
	cfg    FeedConfig
	client *http.Client
	group  singleflight.Group

	fetches   atomic.Int64
	failures  atomic.Int64
	lastItems atomic.Int64

	mu          sync.Mutex
	lastError   string
	lastFetchAt time.Time
}

var _ domain.RemoteSource = (*FeedSource)(nil)

func NewFeedSource(cfg FeedConfig) *FeedSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFeedTimeout
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = cc.Client(context.Background())
		client.Timeout = cfg.Timeout
	}

	return &FeedSource{cfg: cfg, client: client}
}

func (f *FeedSource) Enabled() bool {
	return f.cfg.URL != ""
}

// FetchAll returns the posts currently published by the feed. Concurrent
// callers share one request.
func (f *FeedSource) FetchAll(ctx context.Context) []domain.Post {
	if !f.Enabled() {
		return nil
	}

	ch := f.group.DoChan("feed", func() (any, error) {
		return f.fetch(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil
		}
		posts := res.Val.([]domain.Post)
		out := make([]domain.Post, len(posts))
		copy(out, posts)
		return out
	case <-ctx.Done():
		return nil
	}
}

func (f *FeedSource) fetch(ctx context.Context) ([]domain.Post, error) {
	f.fetches.Add(1)

	posts, err := f.download(ctx)

	f.mu.Lock()
	f.lastFetchAt = time.Now().UTC()
	if err != nil {
		f.lastError = err.Error()
	} else {
		f.lastError = ""
	}
	f.mu.Unlock()

	if err != nil {
		f.failures.Add(1)
		logrus.WithError(err).Warnf("[FEED] fetching %s failed, treating as empty", f.cfg.URL)
		return nil, err
	}

	f.lastItems.Store(int64(len(posts)))
	logrus.Debugf("[FEED] fetched %d posts from %s", len(posts), f.cfg.URL)
	return posts, nil
}

func (f *FeedSource) download(ctx context.Context) ([]domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var envelope feedEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBodyBytes)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("decode feed: missing data array")
	}

	return toPosts(envelope.Data), nil
}

func (f *FeedSource) Stats() FeedStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return FeedStats{
		Enabled:     f.Enabled(),
		Fetches:     f.fetches.Load(),
		Failures:    f.failures.Load(),
		LastItems:   f.lastItems.Load(),
		LastError:   f.lastError,
		LastFetchAt: f.lastFetchAt,
	}
}

// --- Wire format ---

type feedEnvelope struct {
	Data []feedItem `json:"data"`
}

type feedItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ArticleLink string `json:"article_link"`
	PubDate     string `json:"pub_date"`
	Creator     string `json:"creator"`
	Content     string `json:"content"`
	MediaURL    string `json:"media_url"`
}

func toPosts(items []feedItem) []domain.Post {
	seen := make(map[string]struct{}, len(items))
	posts := make([]domain.Post, 0, len(items))

	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			logrus.Debug("[FEED] skipping item without title")
			continue
		}

		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = uuid.New().String()
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		media := strings.TrimSpace(item.MediaURL)
		if media == "" {
			media = firstImage(item.Content)
		}

		posts = append(posts, domain.Post{
			ID:              id,
			Title:           title,
			ArticleLink:     optional(item.ArticleLink),
			PublicationDate: parsePubDate(item.PubDate),
			Creator:         optional(item.Creator),
			Content:         item.Content,
			MediaURL:        optional(media),
		})
	}
	return posts
}

func parsePubDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	logrus.Debugf("[FEED] unparseable pub_date %q", raw)
	return nil
}

// firstImage returns the src of the first absolute <img> in an HTML body.
func firstImage(content string) string {
	if !strings.Contains(content, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}

	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("src")
		u, err := url.Parse(strings.TrimSpace(v))
		if err != nil || !u.IsAbs() {
			return true
		}
		src = u.String()
		return false
	})
	return src
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
