package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/grading"
)

func TestAssessmentStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewAssessmentStore()
	a := sampleAssessment(t, "a1", "u1", time.Now())

	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, a); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}
	got, err := store.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Completed() || got.OwnerID() != "u1" {
		t.Fatalf("unexpected assessment %+v", got.Summary())
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	c := grading.Score(got.Questions(), map[int]string{0: "A"}).Completion(time.Now())
	if err := store.CompleteIfPending(ctx, "a1", c); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := store.CompleteIfPending(ctx, "a1", c); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
	if err := store.CompleteIfPending(ctx, "missing", c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	got, _ = store.GetByID(ctx, "a1")
	stored, ok := got.Completion()
	if !ok || stored.Score != 1 || stored.TotalQuestions != 2 {
		t.Fatalf("unexpected completion %+v", stored)
	}
}

func TestAssessmentStoreConcurrentCompletion(t *testing.T) {
	ctx := context.Background()
	store := NewAssessmentStore()
	a := sampleAssessment(t, "a1", "u1", time.Now())
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wins, conflicts int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		label := []string{"A", "B"}[i%2]
		g.Go(func() error {
			c := grading.Score(a.Questions(), map[int]string{0: label}).Completion(time.Now())
			err := store.CompleteIfPending(ctx, "a1", c)
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, domain.ErrAlreadyCompleted):
				atomic.AddInt32(&conflicts, 1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wins != 1 || conflicts != 15 {
		t.Fatalf("expected exactly one winner, got wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestAssessmentStoreListByOwner(t *testing.T) {
	ctx := context.Background()
	store := NewAssessmentStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_ = store.Create(ctx, sampleAssessment(t, fmt.Sprintf("a%d", i), "u1", base.Add(time.Duration(i)*time.Minute)))
	}
	_ = store.Create(ctx, sampleAssessment(t, "other", "u2", base.Add(time.Hour)))

	items, err := store.ListByOwner(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"a4", "a3", "a2"} {
		if items[i].ID() != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, items[i].ID())
		}
	}
}

func sampleAssessment(t *testing.T, id, owner string, now time.Time) *domain.Assessment {
	t.Helper()
	questions := make([]domain.Question, 2)
	for i := range questions {
		qid := fmt.Sprintf("%s-q%d", id, i)
		questions[i] = domain.Question{
			ID:   qid,
			Text: "What is 2 + 2?",
			Options: []domain.Option{
				{ID: qid + "-a", QuestionID: qid, Label: "A", Text: "4"},
				{ID: qid + "-b", QuestionID: qid, Label: "B", Text: "5"},
			},
			CorrectLabel: "A",
			Explanation:  "arithmetic",
		}
	}
	a, err := domain.NewAssessment(id, owner, "https://youtu.be/"+id, "test-model", questions, now)
	if err != nil {
		t.Fatalf("new assessment: %v", err)
	}
	return a
}
