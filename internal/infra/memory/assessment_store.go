package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"video-quiz-service/internal/domain"
)

// AssessmentStore is an in-memory implementation of app.AssessmentRepository.
// Records are stored by value so callers never share a mutable aggregate.
type AssessmentStore struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{
		records: make(map[string]domain.Record),
	}
}

func (s *AssessmentStore) Create(_ context.Context, a *domain.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[a.ID()]; exists {
		return fmt.Errorf("assessment %s already exists", a.ID())
	}
	s.records[a.ID()] = a.Record()
	return nil
}

func (s *AssessmentStore) GetByID(_ context.Context, id string) (*domain.Assessment, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return domain.Restore(rec)
}

func (s *AssessmentStore) ListByOwner(_ context.Context, ownerID string, limit int) ([]*domain.Assessment, error) {
	s.mu.RLock()
	matches := make([]domain.Record, 0)
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			matches = append(matches, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*domain.Assessment, 0, len(matches))
	for _, rec := range matches {
		a, err := domain.Restore(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CompleteIfPending checks the state and writes the completion under one lock, so of two
// racing submissions exactly one succeeds.
func (s *AssessmentStore) CompleteIfPending(_ context.Context, id string, c domain.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.State != domain.StatePending {
		return domain.ErrAlreadyCompleted
	}
	a, err := domain.Restore(rec)
	if err != nil {
		return err
	}
	if err := a.Complete(c); err != nil {
		return err
	}
	s.records[id] = a.Record()
	return nil
}
