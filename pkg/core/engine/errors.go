package engine

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the cancellation signal fires mid-run.
var ErrCancelled = errors.New("simulation cancelled")

// ValidationError reports malformed input. It is returned before any
// simulation state is created and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced company or pattern that disappeared
// mid-run.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
