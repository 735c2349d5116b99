package usecase

import (
	"context"
	"time"

	domainHealth "github.com/AzielCF/az-posts/domains/health"
)

const healthCheckTimeout = 2 * time.Second

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

type healthService struct {
	database PingFunc
	valkey   PingFunc // nil when valkey is not configured
	feed     feedStatser
	now      func() time.Time
}

func NewHealthService(database, valkey PingFunc, feed feedStatser) domainHealth.IHealthUsecase {
	return &healthService{database: database, valkey: valkey, feed: feed, now: time.Now}
}

func (s *healthService) GetStatus(ctx context.Context) ([]domainHealth.HealthRecord, error) {
	records := []domainHealth.HealthRecord{
		s.ping(ctx, domainHealth.EntityDatabase, s.database),
		s.ping(ctx, domainHealth.EntityValkey, s.valkey),
	}
	return append(records, s.feedRecord()), nil
}

func (s *healthService) ping(ctx context.Context, entity domainHealth.EntityType, fn PingFunc) domainHealth.HealthRecord {
	rec := domainHealth.HealthRecord{EntityType: entity, LastChecked: s.now().UTC()}
	if fn == nil {
		rec.Status = domainHealth.StatusDisabled
		return rec
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		rec.Status = domainHealth.StatusError
		rec.LastMessage = err.Error()
		return rec
	}
	rec.Status = domainHealth.StatusOk
	return rec
}

// feedRecord reports the outcome of the last remote fetch without calling
// the feed.
func (s *healthService) feedRecord() domainHealth.HealthRecord {
	rec := domainHealth.HealthRecord{EntityType: domainHealth.EntityRemoteFeed, LastChecked: s.now().UTC()}
	if s.feed == nil {
		rec.Status = domainHealth.StatusDisabled
		return rec
	}

	st := s.feed.Stats()
	switch {
	case !st.Enabled:
		rec.Status = domainHealth.StatusDisabled
	case st.Fetches == 0:
		rec.Status = domainHealth.StatusUnknown
		rec.LastMessage = "not fetched yet"
	case st.LastError != "":
		rec.Status = domainHealth.StatusError
		rec.LastMessage = st.LastError
	default:
		rec.Status = domainHealth.StatusOk
		rec.LastChecked = st.LastFetchAt
	}
	return rec
}
