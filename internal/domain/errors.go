package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a quiz config fails validation.
	ErrInvalidConfig = errors.New("invalid quiz configuration")
	// ErrInvalidQuiz is returned when a quiz is nil or has no questions.
	ErrInvalidQuiz = errors.New("invalid quiz data")
	// ErrNoActiveSession is returned when an operation needs a live session.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrInvalidIndex is returned for an out-of-range question index.
	ErrInvalidIndex = errors.New("invalid question index")
)

// GenerationKind classifies failures of the external generation collaborator
// so callers can map each class to a distinct user-facing message.
type GenerationKind string

const (
	GenerationAuth      GenerationKind = "auth"
	GenerationQuota     GenerationKind = "quota"
	GenerationTransport GenerationKind = "transport"
	GenerationMalformed GenerationKind = "malformed"
)

// GenerationError wraps a collaborator failure with its classification.
type GenerationError struct {
	Kind GenerationKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("quiz generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError builds a classified generation failure.
func NewGenerationError(kind GenerationKind, err error) *GenerationError {
	return &GenerationError{Kind: kind, Err: err}
}

// GenerationKindOf extracts the classification from an error chain, or ""
// when the error is not a generation failure.
func GenerationKindOf(err error) GenerationKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}
