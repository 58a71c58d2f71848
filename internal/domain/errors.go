package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when no caller identity is established.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller does not own the assessment.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the assessment id is unknown.
	ErrNotFound = errors.New("assessment not found")
	// ErrInvalidInput covers a missing source reference or a malformed answer payload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrGeneration indicates the question generator failed or returned an invalid payload.
	ErrGeneration = errors.New("question generation failed")
	// ErrAlreadyCompleted is returned when an assessment is submitted a second time.
	ErrAlreadyCompleted = errors.New("assessment already completed")
	// ErrInternal marks unexpected failures that are none of the above.
	ErrInternal = errors.New("internal error")
)

// GenerationError wraps an upstream generator failure.
type GenerationError struct {
	Status int
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return ""
	}
	msg := ErrGeneration.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGeneration) match any GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// NewGenerationError builds a GenerationError for the given upstream status and reason.
func NewGenerationError(status int, reason string, err error) *GenerationError {
	return &GenerationError{Status: status, Reason: reason, Err: err}
}

// InvalidInput wraps ErrInvalidInput with detail.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
