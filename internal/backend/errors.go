package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned when the backend rejects the bearer token.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("backend: not found")
	// ErrUnexpectedShape indicates a body that does not match the expected
	// JSON shape, such as an object where a list was expected.
	ErrUnexpectedShape = errors.New("backend: unexpected response shape")
)

// StatusError describes a non-2xx backend response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s %s: %d", e.Method, e.Path, e.Status)
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Message returns the backend supplied message of err, or fallback when the
// error carries none.
func Message(err error, fallback string) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return fallback
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newStatusError(method, path string, status int, body []byte) *StatusError {
	statusErr := &StatusError{Method: method, Path: path, Status: status}
	var payload errorBody
	if err := json.Unmarshal(body, &payload); err == nil {
		statusErr.Message = strings.TrimSpace(payload.Message)
		if statusErr.Message == "" {
			statusErr.Message = strings.TrimSpace(payload.Error)
		}
	}
	return statusErr
}
