package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"video-quiz-service/internal/domain"
)

// SessionStore resolves opaque session tokens issued by the identity service.
// Sessions are stored as: SET session:{token} {userID} EX ttl.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Put registers a token. A non-positive ttl never expires.
func (s *SessionStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.key(token), userID, ttl).Err()
}

// Lookup returns the user id for a live token, or ErrUnauthenticated.
func (s *SessionStore) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && userID == "") {
		return "", domain.ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *SessionStore) key(token string) string {
	return "session:" + token
}
