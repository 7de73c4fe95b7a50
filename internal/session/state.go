package session

import (
	"time"

	"github.com/evmotion/dealer-portal/internal/rbac"
)

// AccountKey is the storage key holding the serialized identity in both
// scopes.
const AccountKey = "account"

// Flash kinds used across the portal.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// State owns the identity of one request. The cell is read lazily from
// storage and only Login and Logout mutate it.
type State struct {
	tab        *Storage
	persistent *Storage

	loaded  bool
	current *Identity
}

func newState(tab, persistent *Storage) *State {
	return &State{tab: tab, persistent: persistent}
}

// Current returns a copy of the signed-in identity. Entries that fail to
// decode are removed from their scope and reading moves on to the next one.
func (s *State) Current() (*Identity, bool) {
	if s == nil {
		return nil, false
	}
	if !s.loaded {
		s.current = s.restore()
		s.loaded = true
	}
	if s.current == nil {
		return nil, false
	}
	id := *s.current
	return &id, true
}

func (s *State) restore() *Identity {
	for _, store := range []*Storage{s.tab, s.persistent} {
		if store == nil {
			continue
		}
		raw, ok := store.GetItem(AccountKey)
		if !ok {
			continue
		}
		id, err := decodeIdentity(raw)
		if err != nil {
			store.RemoveItem(AccountKey)
			continue
		}
		return id
	}
	return nil
}

// Role returns the role of the signed-in identity.
func (s *State) Role() (rbac.Role, bool) {
	id, ok := s.Current()
	if !ok {
		return "", false
	}
	return id.Role, true
}

// Token returns the bearer token of the signed-in identity, if any.
func (s *State) Token() string {
	id, ok := s.Current()
	if !ok {
		return ""
	}
	return id.Token
}

// Login replaces the identity. Both scopes move to fresh ids and the tab
// drops its CSRF token. Without Remember the persistent scope loses any
// earlier entry so a browser restart ends the session.
func (s *State) Login(id Identity) error {
	if s == nil {
		return ErrStateMissing
	}
	if err := id.Validate(); err != nil {
		return err
	}
	raw, err := encodeIdentity(id)
	if err != nil {
		return err
	}

	var expiry time.Time
	if exp, ok := TokenExpiry(id.Token); ok {
		expiry = exp
	}

	s.tab.rotate()
	s.persistent.rotate()

	s.tab.RemoveItem(CSRFStorageKey)
	s.tab.SetItem(AccountKey, raw)
	s.tab.capExpiry(expiry)
	if id.Remember {
		s.persistent.SetItem(AccountKey, raw)
		s.persistent.capExpiry(expiry)
	} else {
		s.persistent.RemoveItem(AccountKey)
		s.persistent.capExpiry(time.Time{})
	}

	stored := id
	s.current = &stored
	s.loaded = true
	return nil
}

// Logout clears the identity from memory and both scopes.
func (s *State) Logout() {
	if s == nil {
		return
	}
	s.current = nil
	s.loaded = true
	for _, store := range []*Storage{s.tab, s.persistent} {
		store.RemoveItem(AccountKey)
		store.capExpiry(time.Time{})
	}
}

// Tab exposes the browser-session scope.
func (s *State) Tab() *Storage {
	return s.tab
}

// Persistent exposes the remember-me scope.
func (s *State) Persistent() *Storage {
	return s.persistent
}

// AddFlash queues a message for the next rendered page.
func (s *State) AddFlash(kind, message string) {
	s.tab.AddFlash(Flash{Kind: kind, Message: message})
}

// PopFlash returns the oldest pending flash message.
func (s *State) PopFlash() *Flash {
	if s == nil {
		return nil
	}
	return s.tab.PopFlash()
}
