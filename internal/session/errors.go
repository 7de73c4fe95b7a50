package session

import "errors"

var (
	// ErrInvalidIdentity indicates an identity without a known role or token.
	ErrInvalidIdentity = errors.New("session: invalid identity")
	// ErrStateMissing is returned when a request carries no session state.
	ErrStateMissing = errors.New("session: state missing")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
