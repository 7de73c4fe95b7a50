package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmotion/dealer-portal/internal/session"
)

func TestCSRFTokenIsStableWithinTab(t *testing.T) {
	m, _ := newManager(t)
	csrf := session.NewCSRFManager("secret")

	var token string
	jar := roundTrip(t, m, nil, func(st *session.State) {
		var err error
		token, err = csrf.EnsureToken(st)
		require.NoError(t, err)
		require.NotEmpty(t, token)
	})

	roundTrip(t, m, jar, func(st *session.State) {
		again, err := csrf.EnsureToken(st)
		require.NoError(t, err)
		assert.Equal(t, token, again)
		assert.NoError(t, csrf.VerifyToken(st, token))
		assert.ErrorIs(t, csrf.VerifyToken(st, token+"x"), session.ErrCSRFTokenMismatch)
		assert.ErrorIs(t, csrf.VerifyToken(st, ""), session.ErrCSRFTokenMissing)
	})
}

func TestCSRFWithoutState(t *testing.T) {
	csrf := session.NewCSRFManager("secret")
	_, err := csrf.EnsureToken(nil)
	assert.ErrorIs(t, err, session.ErrStateMissing)
	assert.ErrorIs(t, csrf.VerifyToken(nil, "token"), session.ErrCSRFTokenMissing)
}

func TestCSRFTokenIsBoundToTab(t *testing.T) {
	m, _ := newManager(t)
	csrf := session.NewCSRFManager("secret")

	var token string
	roundTrip(t, m, nil, func(st *session.State) {
		token, _ = csrf.EnsureToken(st)
	})
	roundTrip(t, m, nil, func(st *session.State) {
		assert.ErrorIs(t, csrf.VerifyToken(st, token), session.ErrCSRFTokenMissing)
	})
}
