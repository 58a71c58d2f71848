// Package generator adapts the external question-generation capability into validated
// question sets.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"video-quiz-service/internal/domain"
)

const (
	DefaultQuestionCount = 10
	MaxQuestionCount     = 20
)

// Request is what the gateway sends to the generation capability.
type Request struct {
	SourceRef     string
	QuestionCount int
	Model         string
}

// RawOption and RawQuestion mirror the generator's payload before validation.
// Tags are checked after normalization, so labels are already upper-case.
type RawOption struct {
	Label string `json:"option" validate:"required,len=1,alpha"`
	Text  string `json:"text" validate:"required"`
}

type RawQuestion struct {
	Question      string      `json:"question" validate:"required"`
	Options       []RawOption `json:"options" validate:"min=2,unique=Label,dive"`
	CorrectAnswer string      `json:"correct_answer" validate:"required,len=1,alpha"`
	Explanation   string      `json:"explanation"`
}

var validate = validator.New()

// Response is a successful capability reply.
type Response struct {
	Model     string
	Questions []RawQuestion
}

// Capability is the remote generator: text in, structured questions out.
type Capability interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, req Request) (Response, error)

func (f CapabilityFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Batch is a validated, all-or-nothing question set.
type Batch struct {
	Model     string
	Questions []domain.Question
}

// Gateway validates inputs, calls the capability and validates its payload.
// It persists nothing.
type Gateway struct {
	capability   Capability
	model        string
	defaultCount int
	maxCount     int
	newID        func() string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithModel asks the capability for a specific model.
func WithModel(model string) Option {
	return func(g *Gateway) { g.model = model }
}

// WithCounts overrides the default and maximum question counts. Non-positive values are
// ignored and the maximum never exceeds MaxQuestionCount.
func WithCounts(defaultCount, maxCount int) Option {
	return func(g *Gateway) {
		if defaultCount > 0 {
			g.defaultCount = defaultCount
		}
		if maxCount > 0 && maxCount <= MaxQuestionCount {
			g.maxCount = maxCount
		}
	}
}

// WithIDGenerator replaces uuid-based ids; used by tests for stable output.
func WithIDGenerator(newID func() string) Option {
	return func(g *Gateway) { g.newID = newID }
}

func NewGateway(capability Capability, opts ...Option) *Gateway {
	g := &Gateway{
		capability:   capability,
		defaultCount: DefaultQuestionCount,
		maxCount:     MaxQuestionCount,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.defaultCount > g.maxCount {
		g.defaultCount = g.maxCount
	}
	return g
}

// Generate produces a validated question set for sourceRef. A count of zero selects the default.
func (g *Gateway) Generate(ctx context.Context, sourceRef string, count int) (Batch, error) {
	sourceRef = strings.TrimSpace(sourceRef)
	if sourceRef == "" {
		return Batch{}, domain.InvalidInput("source reference is required")
	}
	if count == 0 {
		count = g.defaultCount
	}
	if count < 1 || count > g.maxCount {
		return Batch{}, domain.InvalidInput("question count must be between 1 and %d", g.maxCount)
	}

	resp, err := g.capability.Generate(ctx, Request{SourceRef: sourceRef, QuestionCount: count, Model: g.model})
	if err != nil {
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			return Batch{}, genErr
		}
		return Batch{}, domain.NewGenerationError(0, "generator call failed", err)
	}

	questions, err := g.convert(resp.Questions, count)
	if err != nil {
		// Flattened so the payload problem is not mistaken for the caller's invalid input.
		return Batch{}, domain.NewGenerationError(0, "invalid generator payload: "+err.Error(), nil)
	}
	model := resp.Model
	if model == "" {
		model = g.model
	}
	return Batch{Model: model, Questions: questions}, nil
}

// convert validates every raw question; a single invalid question rejects the batch.
func (g *Gateway) convert(raw []RawQuestion, requested int) ([]domain.Question, error) {
	if len(raw) == 0 {
		return nil, errors.New("generator returned no questions")
	}
	if len(raw) > requested {
		return nil, fmt.Errorf("generator returned %d questions, %d requested", len(raw), requested)
	}
	out := make([]domain.Question, 0, len(raw))
	for i, rq := range raw {
		rq = normalizeRaw(rq)
		if err := validate.Struct(rq); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		q := domain.Question{
			ID:           g.newID(),
			Text:         rq.Question,
			CorrectLabel: rq.CorrectAnswer,
			Explanation:  rq.Explanation,
			Options:      make([]domain.Option, 0, len(rq.Options)),
		}
		for _, ro := range rq.Options {
			q.Options = append(q.Options, domain.Option{
				ID:         g.newID(),
				QuestionID: q.ID,
				Label:      ro.Label,
				Text:       ro.Text,
			})
		}
		if err := domain.ValidateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// normalizeRaw trims text and upper-cases labels without touching the caller's slices.
func normalizeRaw(rq RawQuestion) RawQuestion {
	out := RawQuestion{
		Question:      strings.TrimSpace(rq.Question),
		CorrectAnswer: domain.NormalizeLabel(rq.CorrectAnswer),
		Explanation:   strings.TrimSpace(rq.Explanation),
		Options:       make([]RawOption, len(rq.Options)),
	}
	for i, ro := range rq.Options {
		out.Options[i] = RawOption{Label: domain.NormalizeLabel(ro.Label), Text: strings.TrimSpace(ro.Text)}
	}
	return out
}
