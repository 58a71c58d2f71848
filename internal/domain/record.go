package domain

import (
	"fmt"
	"time"
)

// Record is the storage representation of an assessment, shared by the memory, Redis and
// Postgres adapters. It is never handed to callers outside the infra layer.
type Record struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"ownerId"`
	SourceRef      string         `json:"sourceRef"`
	Model          string         `json:"model"`
	State          State          `json:"state"`
	Questions      []Question     `json:"questions"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	Score          *int           `json:"score,omitempty"`
	TotalQuestions *int           `json:"totalQuestions,omitempty"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	Answers        []AnswerRecord `json:"answers,omitempty"`
}

// Record snapshots the aggregate for persistence.
func (a *Assessment) Record() Record {
	r := Record{
		ID:        a.id,
		OwnerID:   a.ownerID,
		SourceRef: a.sourceRef,
		Model:     a.model,
		State:     a.state,
		Questions: cloneQuestions(a.questions),
		CreatedAt: a.createdAt,
		UpdatedAt: a.updatedAt,
	}
	if c, ok := a.Completion(); ok {
		score, total, at := c.Score, c.TotalQuestions, c.CompletedAt
		r.Score = &score
		r.TotalQuestions = &total
		r.CompletedAt = &at
		r.Answers = c.Answers
	}
	return r
}

// Restore rebuilds an aggregate from a stored record, rejecting records that break
// the score-iff-completed invariant.
func Restore(r Record) (*Assessment, error) {
	a := &Assessment{
		id:        r.ID,
		ownerID:   r.OwnerID,
		sourceRef: r.SourceRef,
		model:     r.Model,
		questions: cloneQuestions(r.Questions),
		state:     r.State,
		createdAt: r.CreatedAt,
		updatedAt: r.UpdatedAt,
	}
	switch r.State {
	case StatePending:
		if r.Score != nil || r.CompletedAt != nil || len(r.Answers) > 0 {
			return nil, fmt.Errorf("%w: pending assessment %s carries completion fields", ErrInternal, r.ID)
		}
	case StateCompleted:
		if r.Score == nil || r.TotalQuestions == nil || r.CompletedAt == nil {
			return nil, fmt.Errorf("%w: completed assessment %s is missing its score", ErrInternal, r.ID)
		}
		a.completion = &Completion{
			Score:          *r.Score,
			TotalQuestions: *r.TotalQuestions,
			CompletedAt:    *r.CompletedAt,
			Answers:        append([]AnswerRecord(nil), r.Answers...),
		}
	default:
		return nil, fmt.Errorf("%w: assessment %s has unknown state %q", ErrInternal, r.ID, r.State)
	}
	return a, nil
}
