package auth_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmotion/dealer-portal/internal/auth"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/testing/portaltest"
)

func newRouter(t *testing.T, routes map[string]portaltest.Route, loginRate int) (*portaltest.Harness, *portaltest.Backend, http.Handler) {
	t.Helper()
	h := portaltest.New(t)
	fake := portaltest.NewBackend(t, routes)
	handler := auth.NewHandler(auth.NewService(auth.NewGateway(fake.Client)), h.Page, loginRate)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return h, fake, r
}

func loginForm(next string, remember bool) url.Values {
	form := url.Values{"email": {"staff@evmotion.com"}, "password": {"secret123"}, "next": {next}}
	if remember {
		form.Set("remember", "1")
	}
	return form
}

func TestLoginPage(t *testing.T) {
	h, _, router := newRouter(t, nil, 0)
	req, _ := h.Request(http.MethodGet, "/login?next=%2Fdashboard%2Fcontract", nil, nil)
	rr := h.Serve(router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, `name="next" value="/dashboard/contract"`)
}

func TestLoginStoresIdentityAndForwards(t *testing.T) {
	h, fake, router := newRouter(t, map[string]portaltest.Route{
		"POST /auth/login": portaltest.JSON(http.StatusOK, `{"role":"DEALER_STAFF","token":"jwt-abc","name":"Linh","dealerId":7,"userId":42,"password":"never-stored"}`),
	}, 0)
	req, st := h.Request(http.MethodPost, "/login", loginForm("/dashboard/contract?q=vf8", true), nil)
	rr := h.Serve(router, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard/contract?q=vf8", rr.Header().Get("Location"))

	id, ok := st.Current()
	require.True(t, ok)
	assert.Equal(t, session.Identity{Role: rbac.RoleDealerStaff, Name: "Linh", DealerID: "7", UserID: "42", Token: "jwt-abc", Remember: true}, *id)
	assert.Equal(t, "Successfully log in", portaltest.PendingFlash(st))

	sent, found := fake.Last(http.MethodPost, "/auth/login")
	require.True(t, found)
	assert.JSONEq(t, `{"email":"staff@evmotion.com","password":"secret123"}`, sent.Body)
	assert.Empty(t, sent.Authorization)

	var persistent int
	for _, key := range h.Redis.Keys() {
		if strings.HasPrefix(key, "storage:persistent:") {
			persistent++
		}
	}
	assert.Equal(t, 1, persistent)
}

func TestLoginWhileSignedInSendsNoBearer(t *testing.T) {
	h, fake, router := newRouter(t, map[string]portaltest.Route{
		"POST /auth/login": portaltest.JSON(http.StatusOK, `{"role":"ADMIN","token":"jwt-new","name":"Mai","dealerId":7,"userId":3}`),
	}, 0)
	req, st := h.Request(http.MethodPost, "/login", loginForm("", false), portaltest.As(rbac.RoleDealerStaff))
	rr := h.Serve(router, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	sent, found := fake.Last(http.MethodPost, "/auth/login")
	require.True(t, found)
	assert.Empty(t, sent.Authorization)

	id, ok := st.Current()
	require.True(t, ok)
	assert.Equal(t, rbac.RoleAdmin, id.Role)
	assert.Equal(t, "jwt-new", id.Token)
}

func TestLoginRejectsBackendFailure(t *testing.T) {
	h, _, router := newRouter(t, map[string]portaltest.Route{
		"POST /auth/login": portaltest.JSON(http.StatusUnauthorized, `{"message":"bad credentials"}`),
	}, 0)
	req, st := h.Request(http.MethodPost, "/login", loginForm("", false), nil)
	rr := h.Serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "login failed, please try again")
	_, ok := st.Current()
	assert.False(t, ok)
}

func TestLoginRejectsUnknownRole(t *testing.T) {
	h, _, router := newRouter(t, map[string]portaltest.Route{
		"POST /auth/login": portaltest.JSON(http.StatusOK, `{"role":"JANITOR","token":"t"}`),
	}, 0)
	req, st := h.Request(http.MethodPost, "/login", loginForm("", false), nil)
	rr := h.Serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	_, ok := st.Current()
	assert.False(t, ok)
}

func TestLoginValidatesForm(t *testing.T) {
	h, fake, router := newRouter(t, nil, 0)
	req, _ := h.Request(http.MethodPost, "/login", url.Values{"email": {"nope"}, "password": {"123"}}, nil)
	rr := h.Serve(router, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Invalid email")
	assert.Contains(t, body, "Password must be at least 6 characters")
	assert.Empty(t, fake.Requests())
}

func TestLoginRateLimited(t *testing.T) {
	h, _, router := newRouter(t, map[string]portaltest.Route{
		"POST /auth/login": portaltest.JSON(http.StatusUnauthorized, `{}`),
	}, 2)
	var last int
	for i := 0; i < 3; i++ {
		req, _ := h.Request(http.MethodPost, "/login", loginForm("", false), nil)
		last = h.Serve(router, req).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestLogoutClearsSession(t *testing.T) {
	h, _, router := newRouter(t, nil, 0)
	req, st := h.Request(http.MethodPost, "/logout", url.Values{}, portaltest.As(rbac.RoleAdmin))
	rr := h.Serve(router, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	_, ok := st.Current()
	assert.False(t, ok)
}

func TestSignedInVisitorSkipsLoginPage(t *testing.T) {
	h, _, router := newRouter(t, nil, 0)
	req, _ := h.Request(http.MethodGet, "/login", nil, portaltest.As(rbac.RoleEVMStaff))
	rr := h.Serve(router, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                       "/dashboard",
		"/dashboard/car?page=2":  "/dashboard/car?page=2",
		"https://evil.example/":  "/dashboard",
		"//evil.example/x":       "/dashboard",
		"/\\evil.example":        "/dashboard",
		"dashboard":              "/dashboard",
		"/login?next=/dashboard": "/dashboard",
		"/dashboard/accounts":    "/dashboard/accounts",
	}
	for in, want := range cases {
		assert.Equal(t, want, auth.SafeNext(in), in)
	}
}
