package apperr

import (
	"errors"
	"sort"
	"strings"
)

// NonFieldErrors is the key for errors not tied to a single input field.
const NonFieldErrors = "non_field_errors"

var (
	// ErrNotFound is returned when an id does not resolve, or when the caller
	// is not allowed to know that it does.
	ErrNotFound = errors.New("not found")
	// ErrInvalidToken covers malformed, expired, wrong-type and blacklisted tokens.
	ErrInvalidToken = errors.New("token is invalid or expired")
)

// ValidationError maps input fields to human readable messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Field builds a ValidationError with a single message.
func Field(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = append(v.Fields[field], msg)
}

func (v *ValidationError) HasErrors() bool {
	return len(v.Fields) > 0
}

// Err returns v as an error, or nil when nothing was recorded.
func (v *ValidationError) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
