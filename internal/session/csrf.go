package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"
)

const (
	// CSRFStorageKey is the tab-scope key holding the form token.
	CSRFStorageKey = "csrf_token"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"
)

// CSRFManager issues and verifies CSRF tokens bound to the tab scope.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// EnsureToken retrieves or generates the CSRF token of the state.
func (m *CSRFManager) EnsureToken(st *State) (string, error) {
	if st == nil || st.tab == nil {
		return "", ErrStateMissing
	}
	if token, ok := st.tab.GetItem(CSRFStorageKey); ok && token != "" {
		return token, nil
	}
	token := m.generateToken(st.tab.ID)
	st.tab.SetItem(CSRFStorageKey, token)
	return token, nil
}

// VerifyToken compares the submitted token with the stored one.
func (m *CSRFManager) VerifyToken(st *State, token string) error {
	if st == nil || st.tab == nil || token == "" {
		return ErrCSRFTokenMissing
	}
	expected, ok := st.tab.GetItem(CSRFStorageKey)
	if !ok || expected == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) generateToken(storageID string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(storageID))
	_, _ = mac.Write([]byte{'|'})
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(time.Now().UnixNano()))
	_, _ = mac.Write(buf)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
