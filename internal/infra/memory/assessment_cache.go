package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
)

// AssessmentCache wraps a repository and caches completed assessments with a TTL to avoid
// repeated DB hits. Pending assessments always go to the wrapped store.
type AssessmentCache struct {
	app.AssessmentRepository

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedRecord
}

type cachedRecord struct {
	record    domain.Record
	expiresAt time.Time
}

func NewAssessmentCache(next app.AssessmentRepository, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{
		AssessmentRepository: next,
		ttl:                  ttl,
		clock:                time.Now,
		cache:                make(map[string]cachedRecord),
	}
}

func (c *AssessmentCache) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	if rec, ok := c.lookup(id); ok {
		return domain.Restore(rec)
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if rec, ok := c.lookup(id); ok {
			return rec, nil
		}
		a, err := c.AssessmentRepository.GetByID(ctx, id)
		if err != nil {
			return domain.Record{}, err
		}
		rec := a.Record()
		if rec.State == domain.StateCompleted {
			c.mu.Lock()
			c.cache[id] = cachedRecord{record: rec, expiresAt: c.clock().Add(c.ttlWithJitter())}
			c.mu.Unlock()
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return domain.Restore(result.(domain.Record))
}

func (c *AssessmentCache) lookup(id string) (domain.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Record{}, false
	}
	return entry.record, true
}

func (c *AssessmentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
