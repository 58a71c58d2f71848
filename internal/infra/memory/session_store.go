package memory

import (
	"context"
	"sync"
	"time"

	"video-quiz-service/internal/domain"
)

// SessionStore maps opaque session tokens to account ids, for local runs and tests.
type SessionStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	sessions map[string]session
}

type session struct {
	userID    string
	expiresAt time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		now:      time.Now,
		sessions: make(map[string]session),
	}
}

// Put registers a token for userID. A non-positive ttl never expires.
func (s *SessionStore) Put(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	s.sessions[token] = session{userID: userID, expiresAt: expires}
	return nil
}

// Lookup resolves a token, failing with ErrUnauthenticated for unknown or expired tokens.
func (s *SessionStore) Lookup(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	if !sess.expiresAt.IsZero() && !sess.expiresAt.After(s.now()) {
		_ = s.Delete(context.Background(), token)
		return "", domain.ErrUnauthenticated
	}
	return sess.userID, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
