package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientData marks requests that need more history than the store holds,
// e.g. a location prediction for a subscriber with fewer records than the window.
var ErrInsufficientData = errors.New("insufficient data")

// ErrNotFound marks lookups for subscribers or results that do not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected batch or request, naming the offending fields.
// Nothing is persisted when a ValidationError is returned.
type ValidationError struct {
	Message string
	Fields  []string
}

// NewValidation creates a validation error for the given fields
func NewValidation(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
