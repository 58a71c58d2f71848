package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"video-quiz-service/internal/access"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/generator"
	"video-quiz-service/internal/grading"
	"video-quiz-service/internal/logger"
	"video-quiz-service/internal/metrics"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

// AssessmentRepository abstracts the durable record store (in-memory, Postgres, cached).
type AssessmentRepository interface {
	Create(ctx context.Context, a *domain.Assessment) error
	GetByID(ctx context.Context, id string) (*domain.Assessment, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*domain.Assessment, error)
	// CompleteIfPending writes the completion fields only if the assessment is still pending,
	// returning domain.ErrAlreadyCompleted otherwise.
	CompleteIfPending(ctx context.Context, id string, c domain.Completion) error
}

// QuestionGenerator produces a validated question set for a source reference.
type QuestionGenerator interface {
	Generate(ctx context.Context, sourceRef string, count int) (generator.Batch, error)
}

// AssessmentService contains the assessment use cases.
type AssessmentService struct {
	repo      AssessmentRepository
	generator QuestionGenerator
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

func NewAssessmentService(repo AssessmentRepository, gen QuestionGenerator, log *logger.Logger, m *metrics.Metrics) *AssessmentService {
	return NewAssessmentServiceWithClock(repo, gen, log, m, time.Now)
}

// NewAssessmentServiceWithClock is test-only for deterministic timestamps.
func NewAssessmentServiceWithClock(repo AssessmentRepository, gen QuestionGenerator, log *logger.Logger, m *metrics.Metrics, now func() time.Time) *AssessmentService {
	if log == nil {
		log = logger.Nop()
	}
	return &AssessmentService{
		repo:      repo,
		generator: gen,
		log:       log,
		metrics:   m,
		now:       now,
		newID:     uuid.NewString,
	}
}

// CreateAssessment generates questions for sourceRef and persists a pending assessment.
// Nothing is persisted when generation fails.
func (s *AssessmentService) CreateAssessment(ctx context.Context, ownerID, sourceRef string, count int) (domain.View, error) {
	if ownerID == "" {
		return domain.View{}, domain.ErrUnauthenticated
	}
	sourceRef = strings.TrimSpace(sourceRef)
	if sourceRef == "" {
		return domain.View{}, domain.InvalidInput("source reference is required")
	}

	started := time.Now()
	batch, err := s.generator.Generate(ctx, sourceRef, count)
	if err != nil {
		s.metrics.ObserveGeneration("error", time.Since(started))
		s.log.Warn("generation failed", "owner_id", ownerID, "source_ref", sourceRef, "error", err)
		return domain.View{}, s.classify(err)
	}
	s.metrics.ObserveGeneration("ok", time.Since(started))

	a, err := domain.NewAssessment(s.newID(), ownerID, sourceRef, batch.Model, batch.Questions, s.now())
	if err != nil {
		return domain.View{}, s.classify(err)
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return domain.View{}, s.classify(err)
	}
	s.log.Info("assessment created", "assessment_id", a.ID(), "owner_id", ownerID, "questions", a.QuestionCount(), "model", a.Model())
	return domain.ViewOf(a), nil
}

// GetAssessment returns the owner's view; answers stay hidden until completion.
func (s *AssessmentService) GetAssessment(ctx context.Context, callerID, id string) (domain.View, error) {
	a, err := s.load(ctx, callerID, id, access.CapabilityView)
	if err != nil {
		return domain.View{}, err
	}
	return domain.ViewOf(a), nil
}

// ListAssessments returns the caller's most recent assessments, newest first.
func (s *AssessmentService) ListAssessments(ctx context.Context, callerID string, limit int) ([]domain.Summary, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	items, err := s.repo.ListByOwner(ctx, callerID, limit)
	if err != nil {
		return nil, s.classify(err)
	}
	out := make([]domain.Summary, 0, len(items))
	for _, a := range items {
		out = append(out, a.Summary())
	}
	return out, nil
}

// SubmitAssessment grades answers (question position -> option label) and completes the
// assessment. Only the first submission can succeed; later ones get ErrAlreadyCompleted.
func (s *AssessmentService) SubmitAssessment(ctx context.Context, callerID, id string, answers map[int]string) (domain.SubmitResult, error) {
	a, err := s.load(ctx, callerID, id, access.CapabilitySubmit)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	log := s.log.With("assessment_id", a.ID())
	if a.Completed() {
		s.metrics.ObserveSubmission("already_completed")
		log.Info("submission rejected, already completed")
		return domain.SubmitResult{}, domain.ErrAlreadyCompleted
	}
	// Positions without a question are ignored by the scorer.
	if answers == nil {
		return domain.SubmitResult{}, domain.InvalidInput("answers are required")
	}

	questions := a.Questions()
	result := grading.Score(questions, answers)
	completion := result.Completion(s.now().UTC())
	if err := a.Complete(completion); err != nil {
		return domain.SubmitResult{}, s.classify(err)
	}
	if err := s.repo.CompleteIfPending(ctx, a.ID(), completion); err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			s.metrics.ObserveSubmission("already_completed")
			log.Info("submission lost race, already completed")
		}
		return domain.SubmitResult{}, s.classify(err)
	}
	s.metrics.ObserveSubmission("ok")
	log.Info("assessment completed", "score", result.Score, "total", result.Total)

	return domain.SubmitResult{
		Score:   result.Score,
		Total:   result.Total,
		Details: domain.ResultsOf(questions, result.Records),
	}, nil
}

// load fetches the assessment and runs the ownership guard on the loaded record.
func (s *AssessmentService) load(ctx context.Context, callerID, id string, c access.Capability) (*domain.Assessment, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrNotFound
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	if err := access.Authorize(callerID, a, c); err != nil {
		s.log.With("assessment_id", id).Warn("access denied", "caller_id", callerID, "capability", string(c))
		return nil, err
	}
	return a, nil
}

var namedErrors = []error{
	domain.ErrUnauthenticated,
	domain.ErrForbidden,
	domain.ErrNotFound,
	domain.ErrInvalidInput,
	domain.ErrGeneration,
	domain.ErrAlreadyCompleted,
	domain.ErrInternal,
}

// classify passes named errors through and folds everything else into ErrInternal.
func (s *AssessmentService) classify(err error) error {
	for _, named := range namedErrors {
		if errors.Is(err, named) {
			return err
		}
	}
	s.log.Error("unexpected failure", "error", err)
	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}
