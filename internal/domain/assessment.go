package domain

import (
	"fmt"
	"strings"
	"time"
)

// Assessment is one generated quiz tied to an owner and a source reference.
// Questions are fixed at creation; the completion fields are written exactly once.
type Assessment struct {
	id        string
	ownerID   string
	sourceRef string
	model     string
	questions []Question
	state     State
	createdAt time.Time
	updatedAt time.Time

	completion *Completion
}

// NewAssessment builds a pending assessment holding the full question set.
func NewAssessment(id, ownerID, sourceRef, model string, questions []Question, now time.Time) (*Assessment, error) {
	if id == "" {
		return nil, InvalidInput("assessment id is empty")
	}
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(sourceRef) == "" {
		return nil, InvalidInput("source reference is required")
	}
	if len(questions) == 0 {
		return nil, InvalidInput("assessment needs at least one question")
	}
	for i, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}
	now = now.UTC()
	return &Assessment{
		id:        id,
		ownerID:   ownerID,
		sourceRef: sourceRef,
		model:     model,
		questions: cloneQuestions(questions),
		state:     StatePending,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func (a *Assessment) ID() string           { return a.id }
func (a *Assessment) OwnerID() string      { return a.ownerID }
func (a *Assessment) SourceRef() string    { return a.sourceRef }
func (a *Assessment) Model() string        { return a.model }
func (a *Assessment) State() State         { return a.state }
func (a *Assessment) CreatedAt() time.Time { return a.createdAt }
func (a *Assessment) QuestionCount() int   { return len(a.questions) }

// Questions returns a copy of the ordered question set.
func (a *Assessment) Questions() []Question {
	return cloneQuestions(a.questions)
}

// Completed reports whether the assessment has been graded.
func (a *Assessment) Completed() bool {
	return a.state == StateCompleted
}

// Completion returns the stored grading outcome, if any.
func (a *Assessment) Completion() (Completion, bool) {
	if a.completion == nil {
		return Completion{}, false
	}
	c := *a.completion
	c.Answers = append([]AnswerRecord(nil), a.completion.Answers...)
	return c, true
}

// Complete transitions Pending -> Completed. It is the only mutator of the completion fields.
func (a *Assessment) Complete(c Completion) error {
	if a.state == StateCompleted {
		return ErrAlreadyCompleted
	}
	if err := a.checkCompletion(c); err != nil {
		return err
	}
	c.CompletedAt = c.CompletedAt.UTC()
	c.Answers = append([]AnswerRecord(nil), c.Answers...)
	a.completion = &c
	a.state = StateCompleted
	a.updatedAt = c.CompletedAt
	return nil
}

// checkCompletion enforces one answer record per question, matched by id and position,
// and a total equal to the question count fixed at creation.
func (a *Assessment) checkCompletion(c Completion) error {
	if c.TotalQuestions != len(a.questions) {
		return fmt.Errorf("%w: total %d does not match %d questions", ErrInternal, c.TotalQuestions, len(a.questions))
	}
	if len(c.Answers) != len(a.questions) {
		return fmt.Errorf("%w: %d answer records for %d questions", ErrInternal, len(c.Answers), len(a.questions))
	}
	correct := 0
	for i, rec := range c.Answers {
		if rec.Position != i || rec.QuestionID != a.questions[i].ID {
			return fmt.Errorf("%w: answer record %d does not match question %s", ErrInternal, i, a.questions[i].ID)
		}
		if rec.Correct {
			correct++
		}
	}
	if c.Score != correct || c.Score < 0 {
		return fmt.Errorf("%w: score %d does not match %d correct records", ErrInternal, c.Score, correct)
	}
	return nil
}

// Summary returns the list projection.
func (a *Assessment) Summary() Summary {
	s := Summary{
		ID:        a.id,
		SourceRef: a.sourceRef,
		Model:     a.model,
		CreatedAt: a.createdAt,
		Completed: a.Completed(),
	}
	if c, ok := a.Completion(); ok {
		score, total, at := c.Score, c.TotalQuestions, c.CompletedAt
		s.Score = &score
		s.TotalQuestions = &total
		s.CompletedAt = &at
	}
	return s
}
