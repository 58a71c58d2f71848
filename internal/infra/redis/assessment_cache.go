package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/logger"
)

// AssessmentCache caches completed assessment records in Redis and falls back to the wrapped
// repository on a miss. Records are stored as JSON: SET assessment:{id} {record} EX ttl.
// Pending records are never cached: they can still change, and a completed record cannot.
type AssessmentCache struct {
	app.AssessmentRepository

	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
	sf     singleflight.Group
}

func NewAssessmentCache(client *redis.Client, next app.AssessmentRepository, ttl time.Duration, log *logger.Logger) *AssessmentCache {
	if log == nil {
		log = logger.Nop()
	}
	return &AssessmentCache{
		AssessmentRepository: next,
		client:               client,
		ttl:                  ttl,
		log:                  log,
	}
}

func (c *AssessmentCache) GetByID(ctx context.Context, id string) (*domain.Assessment, error) {
	if rec, ok := c.read(ctx, id); ok {
		return domain.Restore(rec)
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if rec, ok := c.read(ctx, id); ok {
			return rec, nil
		}
		a, err := c.AssessmentRepository.GetByID(ctx, id)
		if err != nil {
			return domain.Record{}, err
		}
		rec := a.Record()
		if rec.State == domain.StateCompleted {
			c.write(ctx, rec)
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return domain.Restore(result.(domain.Record))
}

func (c *AssessmentCache) read(ctx context.Context, id string) (domain.Record, bool) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", "assessment_id", id, "error", err)
		}
		return domain.Record{}, false
	}
	var rec domain.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		c.log.Warn("cache entry corrupt", "assessment_id", id, "error", err)
		return domain.Record{}, false
	}
	return rec, true
}

// write is best effort; the store stays the source of truth.
func (c *AssessmentCache) write(ctx context.Context, rec domain.Record) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(rec.ID), raw, c.ttlWithJitter()).Err(); err != nil {
		c.log.Warn("cache write failed", "assessment_id", rec.ID, "error", err)
	}
}

func (c *AssessmentCache) key(id string) string {
	return "assessment:" + id
}

func (c *AssessmentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
