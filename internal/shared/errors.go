package shared

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalidID indicates a blank resource identifier in a route.
var ErrInvalidID = errors.New("invalid id")

// ValidationError carries the per-field messages of a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// Validate runs the struct tags of v and returns a *ValidationError when any
// field fails.
func Validate(v any) error {
	if fields := FieldErrors(v); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// FormErrors maps err to the messages shown next to form fields. Errors that
// are not validation failures land under "general".
func FormErrors(err error, general string) map[string]string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return map[string]string{"general": general}
}
