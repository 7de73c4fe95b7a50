package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
)

func newManager(t *testing.T) (*session.Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewManager(client, session.Options{
		TabTTL:        time.Hour,
		PersistentTTL: 48 * time.Hour,
	}), mr
}

// roundTrip loads the state for a request carrying cookies, applies fn and
// commits, returning the cookies the browser would keep.
func roundTrip(t *testing.T, m *session.Manager, cookies []*http.Cookie, fn func(st *session.State)) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	st, err := m.Load(context.Background(), req)
	require.NoError(t, err)
	if fn != nil {
		fn(st)
	}
	rr := httptest.NewRecorder()
	require.NoError(t, m.Commit(context.Background(), rr, st))
	return mergeCookies(cookies, rr.Result().Cookies())
}

func mergeCookies(jar, set []*http.Cookie) []*http.Cookie {
	byName := map[string]*http.Cookie{}
	order := []string{}
	for _, c := range append(append([]*http.Cookie{}, jar...), set...) {
		if _, ok := byName[c.Name]; !ok {
			order = append(order, c.Name)
		}
		byName[c.Name] = c
	}
	out := []*http.Cookie{}
	for _, name := range order {
		c := byName[name]
		if c.MaxAge < 0 {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func dropCookie(jar []*http.Cookie, name string) []*http.Cookie {
	out := []*http.Cookie{}
	for _, c := range jar {
		if c.Name != name {
			out = append(out, c)
		}
	}
	return out
}

func current(t *testing.T, m *session.Manager, cookies []*http.Cookie) (*session.Identity, bool) {
	t.Helper()
	var (
		id *session.Identity
		ok bool
	)
	roundTrip(t, m, cookies, func(st *session.State) { id, ok = st.Current() })
	return id, ok
}

func storedKeys(mr *miniredis.Miniredis, scope session.Scope) []string {
	prefix := "storage:" + string(scope) + ":"
	var out []string
	for _, k := range mr.Keys() {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k)
		}
	}
	return out
}

func staff() session.Identity {
	return session.Identity{Role: rbac.RoleDealerStaff, Name: "Linh", DealerID: "7", UserID: "42", Token: "opaque-token"}
}

func TestLoginWithoutRememberSurvivesReload(t *testing.T) {
	m, mr := newManager(t)
	want := staff()

	jar := roundTrip(t, m, nil, func(st *session.State) {
		require.NoError(t, st.Login(want))
		got, ok := st.Current()
		require.True(t, ok)
		assert.Equal(t, want, *got)
	})

	got, ok := current(t, m, jar)
	require.True(t, ok)
	assert.Equal(t, want, *got)
	assert.Empty(t, storedKeys(mr, session.ScopePersistent))

	// A restart drops the browser-session cookie.
	_, ok = current(t, m, dropCookie(jar, m.Options().TabCookie))
	assert.False(t, ok)
}

func TestLoginWithRememberSurvivesRestart(t *testing.T) {
	m, mr := newManager(t)
	want := staff()
	want.Remember = true

	jar := roundTrip(t, m, nil, func(st *session.State) {
		require.NoError(t, st.Login(want))
	})
	require.Len(t, storedKeys(mr, session.ScopeTab), 1)
	require.Len(t, storedKeys(mr, session.ScopePersistent), 1)

	got, ok := current(t, m, dropCookie(jar, m.Options().TabCookie))
	require.True(t, ok)
	assert.Equal(t, want, *got)
}

func TestLoginWithoutRememberClearsStalePersistentEntry(t *testing.T) {
	m, mr := newManager(t)
	remembered := staff()
	remembered.Remember = true

	jar := roundTrip(t, m, nil, func(st *session.State) {
		require.NoError(t, st.Login(remembered))
	})
	jar = roundTrip(t, m, jar, func(st *session.State) {
		require.NoError(t, st.Login(staff()))
	})

	assert.Empty(t, storedKeys(mr, session.ScopePersistent))
	for _, c := range jar {
		assert.NotEqual(t, m.Options().PersistentCookie, c.Name)
	}
}

func TestLogoutClearsBothScopes(t *testing.T) {
	m, mr := newManager(t)
	id := staff()
	id.Remember = true

	jar := roundTrip(t, m, nil, func(st *session.State) {
		require.NoError(t, st.Login(id))
	})
	stale := append([]*http.Cookie{}, jar...)

	roundTrip(t, m, jar, func(st *session.State) {
		st.Logout()
		_, ok := st.Current()
		assert.False(t, ok)
	})

	assert.Empty(t, storedKeys(mr, session.ScopeTab))
	assert.Empty(t, storedKeys(mr, session.ScopePersistent))
	_, ok := current(t, m, stale)
	assert.False(t, ok)
}

func TestCorruptEntryIsPurged(t *testing.T) {
	m, mr := newManager(t)
	const id = "6f1c2a9e-3d4b-4c5a-9e8f-0a1b2c3d4e5f"
	key := "storage:tab:" + id
	require.NoError(t, mr.Set(key, `{"values":{"account":"{not-json"}}`))

	jar := []*http.Cookie{{Name: m.Options().TabCookie, Value: id}}
	assert.NotPanics(t, func() {
		_, ok := current(t, m, jar)
		assert.False(t, ok)
	})
	assert.False(t, mr.Exists(key))
}

func TestCorruptTabEntryFallsBackToPersistent(t *testing.T) {
	m, mr := newManager(t)
	const tabID = "11111111-2222-4333-8444-555555555555"
	const keepID = "66666666-7777-4888-9999-000000000000"
	require.NoError(t, mr.Set("storage:tab:"+tabID, `{"values":{"account":"{\"role\":\"JANITOR\",\"token\":\"t\"}","csrf_token":"x"}}`))
	require.NoError(t, mr.Set("storage:persistent:"+keepID, `{"values":{"account":"{\"role\":\"ADMIN\",\"token\":\"t\",\"password\":\"leak\"}"}}`))

	jar := []*http.Cookie{
		{Name: m.Options().TabCookie, Value: tabID},
		{Name: m.Options().PersistentCookie, Value: keepID},
	}
	got, ok := current(t, m, jar)
	require.True(t, ok)
	assert.Equal(t, rbac.RoleAdmin, got.Role)

	raw, err := mr.Get("storage:tab:" + tabID)
	require.NoError(t, err)
	assert.NotContains(t, raw, "account")
	assert.Contains(t, raw, "csrf_token")
}

func TestUnreadablePayloadIsDiscarded(t *testing.T) {
	m, mr := newManager(t)
	const id = "6f1c2a9e-3d4b-4c5a-9e8f-0a1b2c3d4e5f"
	key := "storage:persistent:" + id
	require.NoError(t, mr.Set(key, "garbage"))

	_, ok := current(t, m, []*http.Cookie{{Name: m.Options().PersistentCookie, Value: id}})
	assert.False(t, ok)
	assert.False(t, mr.Exists(key))
}

func TestLoginIssuesFreshStorageIDs(t *testing.T) {
	m, mr := newManager(t)
	csrf := session.NewCSRFManager("secret")

	var tabBefore, token string
	jar := roundTrip(t, m, nil, func(st *session.State) {
		token, _ = csrf.EnsureToken(st)
		tabBefore = st.Tab().ID
	})
	require.True(t, mr.Exists("storage:tab:"+tabBefore))

	var tabAfter string
	jar = roundTrip(t, m, jar, func(st *session.State) {
		require.NoError(t, st.Login(staff()))
		tabAfter = st.Tab().ID
		assert.ErrorIs(t, csrf.VerifyToken(st, token), session.ErrCSRFTokenMissing)
	})

	assert.NotEqual(t, tabBefore, tabAfter)
	assert.False(t, mr.Exists("storage:tab:"+tabBefore))
	assert.True(t, mr.Exists("storage:tab:"+tabAfter))

	// The cookie from before sign-in no longer reaches the account.
	_, ok := current(t, m, []*http.Cookie{{Name: m.Options().TabCookie, Value: tabBefore}})
	assert.False(t, ok)
	_, ok = current(t, m, jar)
	assert.True(t, ok)
}

func TestPlantedStorageIDIsNotAdopted(t *testing.T) {
	m, mr := newManager(t)
	const planted = "0f0e0d0c-0b0a-4909-8807-060504030201"
	id := staff()
	id.Remember = true

	roundTrip(t, m, []*http.Cookie{
		{Name: m.Options().TabCookie, Value: planted},
		{Name: m.Options().PersistentCookie, Value: planted},
	}, func(st *session.State) {
		assert.NotEqual(t, planted, st.Tab().ID)
		assert.NotEqual(t, planted, st.Persistent().ID)
		require.NoError(t, st.Login(id))
	})

	assert.False(t, mr.Exists("storage:tab:"+planted))
	assert.False(t, mr.Exists("storage:persistent:"+planted))
	_, ok := current(t, m, []*http.Cookie{
		{Name: m.Options().TabCookie, Value: planted},
		{Name: m.Options().PersistentCookie, Value: planted},
	})
	assert.False(t, ok)
}

func TestLoginWithoutState(t *testing.T) {
	var st *session.State
	assert.ErrorIs(t, st.Login(staff()), session.ErrStateMissing)
}

func TestLoginRejectsInvalidIdentity(t *testing.T) {
	m, _ := newManager(t)
	roundTrip(t, m, nil, func(st *session.State) {
		err := st.Login(session.Identity{Role: "JANITOR", Token: "t"})
		assert.ErrorIs(t, err, session.ErrInvalidIdentity)
		err = st.Login(session.Identity{Role: rbac.RoleAdmin})
		assert.ErrorIs(t, err, session.ErrInvalidIdentity)
		_, ok := st.Current()
		assert.False(t, ok)
	})
}

func TestTokenExpiryBoundsStorageLifetime(t *testing.T) {
	m, mr := newManager(t)
	exp := time.Now().Add(30 * time.Minute)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)

	id := staff()
	id.Token = token
	id.Remember = true

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	st, err := m.Load(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, st.Login(id))
	rr := httptest.NewRecorder()
	require.NoError(t, m.Commit(context.Background(), rr, st))

	keys := storedKeys(mr, session.ScopePersistent)
	require.Len(t, keys, 1)
	assert.LessOrEqual(t, mr.TTL(keys[0]), 30*time.Minute)

	for _, c := range rr.Result().Cookies() {
		if c.Name == m.Options().PersistentCookie {
			assert.LessOrEqual(t, c.MaxAge, int((30 * time.Minute).Seconds()))
		}
	}

	got, ok := session.TokenExpiry(token)
	require.True(t, ok)
	assert.WithinDuration(t, exp, got, time.Second)
	_, ok = session.TokenExpiry("opaque-token")
	assert.False(t, ok)
}

func TestFlashesSurviveOneRedirect(t *testing.T) {
	m, _ := newManager(t)
	jar := roundTrip(t, m, nil, func(st *session.State) {
		st.AddFlash(session.FlashSuccess, "Successfully log in")
	})
	roundTrip(t, m, jar, func(st *session.State) {
		flash := st.PopFlash()
		require.NotNil(t, flash)
		assert.Equal(t, "Successfully log in", flash.Message)
	})
	roundTrip(t, m, jar, func(st *session.State) {
		assert.Nil(t, st.PopFlash())
	})
}

func TestResolverReadsRoleFromContext(t *testing.T) {
	m, _ := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/dashboard/car", nil)

	_, ok := session.Resolver{}.CurrentRole(req)
	assert.False(t, ok)

	st, err := m.Load(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, st.Login(session.Identity{Role: rbac.RoleEVMStaff, Token: "t"}))
	req = req.WithContext(session.ContextWithState(req.Context(), st))

	role, ok := session.Resolver{}.CurrentRole(req)
	assert.True(t, ok)
	assert.Equal(t, rbac.RoleEVMStaff, role)
	assert.Equal(t, "t", session.TokenFromContext(req.Context()))
}
