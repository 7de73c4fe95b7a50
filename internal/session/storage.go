package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Scope identifies one of the two storage areas a browser owns.
type Scope string

// Storage scopes.
const (
	// ScopeTab lives as long as the browser session cookie.
	ScopeTab Scope = "tab"
	// ScopePersistent survives browser restarts.
	ScopePersistent Scope = "persistent"
)

const minEntryTTL = time.Second

// Flash is a one-time notification shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Options configures cookie names and lifetimes of both scopes.
type Options struct {
	TabCookie        string
	PersistentCookie string
	TabTTL           time.Duration
	PersistentTTL    time.Duration
	Secure           bool
}

// DefaultOptions mirrors the portal's production cookie layout.
func DefaultOptions() Options {
	return Options{
		TabCookie:        "evportal_tab",
		PersistentCookie: "evportal_remember",
		TabTTL:           12 * time.Hour,
		PersistentTTL:    30 * 24 * time.Hour,
	}
}

// Manager loads and commits the per-browser storage scopes backed by Redis.
type Manager struct {
	client *redis.Client
	opts   Options
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(client *redis.Client, opts Options) *Manager {
	defaults := DefaultOptions()
	if opts.TabCookie == "" {
		opts.TabCookie = defaults.TabCookie
	}
	if opts.PersistentCookie == "" {
		opts.PersistentCookie = defaults.PersistentCookie
	}
	if opts.TabTTL <= 0 {
		opts.TabTTL = defaults.TabTTL
	}
	if opts.PersistentTTL <= 0 {
		opts.PersistentTTL = defaults.PersistentTTL
	}
	return &Manager{client: client, opts: opts, now: time.Now}
}

// Options exposes the effective configuration.
func (m *Manager) Options() Options {
	return m.opts
}

// Storage is a string key/value bag persisted under one cookie.
type Storage struct {
	ID        string
	scope     Scope
	values    map[string]string
	flashes   []Flash
	expiresAt time.Time
	isNew     bool
	dirty     bool
	// staleID names an entry left behind by rotate; commit deletes it.
	staleID string
}

type storagePayload struct {
	Values    map[string]string `json:"values"`
	Flashes   []Flash           `json:"flashes,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// Scope reports which area the storage belongs to.
func (s *Storage) Scope() Scope {
	return s.scope
}

// GetItem returns the value stored under key.
func (s *Storage) GetItem(key string) (string, bool) {
	if s.values == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// SetItem stores value under key.
func (s *Storage) SetItem(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// RemoveItem deletes key.
func (s *Storage) RemoveItem(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	return len(s.values)
}

// AddFlash queues a flash message.
func (s *Storage) AddFlash(msg Flash) {
	s.flashes = append(s.flashes, msg)
	s.dirty = true
}

// PopFlash retrieves and clears the oldest flash message.
func (s *Storage) PopFlash() *Flash {
	if len(s.flashes) == 0 {
		return nil
	}
	msg := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &msg
}

// capExpiry bounds the lifetime of the entry. A zero time removes the bound.
func (s *Storage) capExpiry(t time.Time) {
	if !s.expiresAt.Equal(t) {
		s.expiresAt = t
		s.dirty = true
	}
}

// rotate moves the storage to a fresh id. The entry under the old id is
// removed on commit so a cookie issued before sign-in stops resolving.
func (s *Storage) rotate() {
	if !s.isNew && s.staleID == "" {
		s.staleID = s.ID
	}
	s.ID = generateStorageID()
	s.isNew = true
	s.dirty = true
}

func (s *Storage) empty() bool {
	return len(s.values) == 0 && len(s.flashes) == 0
}

// Load reads both scopes addressed by the request cookies and returns the
// request's state. Unreadable payloads are discarded.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*State, error) {
	tab, err := m.loadScope(ctx, r, ScopeTab)
	if err != nil {
		return nil, err
	}
	persistent, err := m.loadScope(ctx, r, ScopePersistent)
	if err != nil {
		return nil, err
	}
	return newState(tab, persistent), nil
}

func (m *Manager) loadScope(ctx context.Context, r *http.Request, scope Scope) (*Storage, error) {
	store := &Storage{scope: scope, values: make(map[string]string), isNew: true}

	cookie, err := r.Cookie(m.cookieName(scope))
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			store.ID = generateStorageID()
			return store, nil
		}
		return nil, err
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		store.ID = generateStorageID()
		return store, nil
	}
	store.ID = cookie.Value

	data, err := m.client.Get(ctx, m.redisKey(scope, store.ID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Never adopt an id the server did not issue.
			store.ID = generateStorageID()
			return store, nil
		}
		return nil, fmt.Errorf("load %s storage: %w", scope, err)
	}

	// The key exists from here on: an emptied storage must delete it.
	store.isNew = false
	var payload storagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		store.dirty = true
		return store, nil
	}
	if payload.Values != nil {
		store.values = payload.Values
	}
	store.flashes = payload.Flashes
	if payload.ExpiresAt != nil {
		store.expiresAt = *payload.ExpiresAt
	}
	return store, nil
}

// Commit persists dirty scopes and writes the cookie headers. It is safe to
// call more than once per request.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, st *State) error {
	if st == nil {
		return nil
	}
	if err := m.commitScope(ctx, w, st.tab); err != nil {
		return err
	}
	return m.commitScope(ctx, w, st.persistent)
}

func (m *Manager) commitScope(ctx context.Context, w http.ResponseWriter, store *Storage) error {
	if store == nil || !store.dirty {
		return nil
	}
	key := m.redisKey(store.scope, store.ID)

	rotated := store.staleID != ""
	if rotated {
		if err := m.client.Del(ctx, m.redisKey(store.scope, store.staleID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("delete stale %s storage: %w", store.scope, err)
		}
		store.staleID = ""
	}

	if store.empty() {
		if !store.isNew || rotated {
			if err := m.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
				return fmt.Errorf("delete %s storage: %w", store.scope, err)
			}
			http.SetCookie(w, m.expiredCookie(store.scope))
		}
		store.isNew = true
		store.dirty = false
		return nil
	}

	ttl := m.entryTTL(store)
	payload := storagePayload{Values: store.values, Flashes: store.flashes}
	if !store.expiresAt.IsZero() {
		exp := store.expiresAt.UTC()
		payload.ExpiresAt = &exp
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save %s storage: %w", store.scope, err)
	}
	http.SetCookie(w, m.cookie(store, ttl))
	store.isNew = false
	store.dirty = false
	return nil
}

func (m *Manager) entryTTL(store *Storage) time.Duration {
	ttl := m.opts.TabTTL
	if store.scope == ScopePersistent {
		ttl = m.opts.PersistentTTL
	}
	if !store.expiresAt.IsZero() {
		if remaining := store.expiresAt.Sub(m.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl < minEntryTTL {
		ttl = minEntryTTL
	}
	return ttl
}

func (m *Manager) cookie(store *Storage, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     m.cookieName(store.scope),
		Value:    store.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if store.scope == ScopePersistent {
		c.Expires = m.now().Add(ttl)
		c.MaxAge = int(ttl.Seconds())
	}
	return c
}

func (m *Manager) expiredCookie(scope Scope) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName(scope),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) cookieName(scope Scope) string {
	if scope == ScopePersistent {
		return m.opts.PersistentCookie
	}
	return m.opts.TabCookie
}

func (m *Manager) redisKey(scope Scope, id string) string {
	return "storage:" + string(scope) + ":" + id
}

func generateStorageID() string {
	return uuid.NewString()
}
