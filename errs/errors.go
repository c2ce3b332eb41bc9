// Package errs holds the error vocabulary shared by the content stores and
// the HTTP layer.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalid  = errors.New("invalid")
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every rejected field of a request so the caller
// sees all problems at once.
type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Items))
	for i, item := range e.Items {
		parts[i] = item.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{Field: field, Message: msg})
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

// Invalid returns a single-field validation error.
func Invalid(field, msg string) error {
	var ve ValidationError
	ve.Add(field, msg)
	return ve
}

// CleanupFailure describes a secondary step that failed after the primary
// mutation already succeeded. The primary result stands; the failure is
// reported, not retried.
type CleanupFailure struct {
	Op     string `json:"op"`
	Target string `json:"target"`
	Err    string `json:"error"`
}

func (f CleanupFailure) Error() string {
	return fmt.Sprintf("%s %s: %s", f.Op, f.Target, f.Err)
}

// Cleanup builds a CleanupFailure from err.
func Cleanup(op, target string, err error) CleanupFailure {
	return CleanupFailure{Op: op, Target: target, Err: err.Error()}
}
