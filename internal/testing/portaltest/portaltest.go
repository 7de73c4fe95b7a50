// Package portaltest wires the request plumbing of the portal for handler
// tests: miniredis-backed sessions, the embedded templates and the dashboard
// page helper.
package portaltest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/evmotion/dealer-portal/internal/backend"
	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/view"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PORTAL_TEST_MODE") == "" {
			_ = os.Setenv("PORTAL_TEST_MODE", "1")
		}
	})
}

// Token is the bearer token carried by identities built with As.
const Token = "test-token"

// Harness holds the collaborators a handler under test needs.
type Harness struct {
	t         *testing.T
	Redis     *miniredis.Miniredis
	Sessions  *session.Manager
	CSRF      *session.CSRFManager
	Templates *view.Engine
	Page      *dashboard.Page
	Logger    *slog.Logger
}

// New starts miniredis and parses the templates.
func New(t *testing.T) *Harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	csrf := session.NewCSRFManager("csrf-secret")
	return &Harness{
		t:         t,
		Redis:     mr,
		Sessions:  session.NewManager(client, session.Options{TabTTL: time.Hour, PersistentTTL: 24 * time.Hour}),
		CSRF:      csrf,
		Templates: templates,
		Page:      dashboard.NewPage(logger, templates, csrf),
		Logger:    logger,
	}
}

// As builds a signed-in identity for role.
func As(role rbac.Role) *session.Identity {
	return &session.Identity{Role: role, Name: "Test " + string(role), UserID: "1", DealerID: "7", Token: Token}
}

// Request builds a request carrying a freshly loaded state. A non-nil id is
// signed in; form values are sent urlencoded.
func (h *Harness) Request(method, target string, form url.Values, id *session.Identity) (*http.Request, *session.State) {
	h.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	st, err := h.Sessions.Load(context.Background(), req)
	if err != nil {
		h.t.Fatalf("load session: %v", err)
	}
	if id != nil {
		if err := st.Login(*id); err != nil {
			h.t.Fatalf("login: %v", err)
		}
	}
	return req.WithContext(session.ContextWithState(req.Context(), st)), st
}

// Serve runs req through handler and commits the state afterwards.
func (h *Harness) Serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if err := h.Sessions.Commit(context.Background(), rr, session.FromContext(req.Context())); err != nil {
		h.t.Fatalf("commit session: %v", err)
	}
	return rr
}

// PendingFlash pops the flash message queued on st.
func PendingFlash(st *session.State) string {
	if flash := st.PopFlash(); flash != nil {
		return flash.Message
	}
	return ""
}

// Route answers one "METHOD /path" of the fake backend.
type Route func(w http.ResponseWriter, r *http.Request)

// JSON answers with status and a raw JSON body.
func JSON(status int, body string) Route {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// Backend is a fake dealership REST backend served over httptest.
type Backend struct {
	Server *httptest.Server
	Client *backend.Client

	mu       sync.Mutex
	requests []Recorded
}

// Recorded is a request received by the fake backend.
type Recorded struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Body          string
}

// NewBackend serves routes keyed by "METHOD /path". Unknown routes answer
// 404. The returned client reads tokens from the request state.
func NewBackend(t *testing.T, routes map[string]Route) *Backend {
	t.Helper()
	fake := &Backend{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		path := strings.TrimPrefix(r.URL.Path, "/api")
		fake.mu.Lock()
		fake.requests = append(fake.requests, Recorded{
			Method:        r.Method,
			Path:          path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		fake.mu.Unlock()
		if route, ok := routes[r.Method+" "+path]; ok {
			route(w, r)
			return
		}
		JSON(http.StatusNotFound, `{"message":"not found"}`)(w, r)
	}))
	t.Cleanup(fake.Server.Close)

	client, err := backend.NewClient(backend.Config{
		BaseURL: fake.Server.URL + "/api",
		Timeout: 2 * time.Second,
		Tokens:  session.TokenFromContext,
	})
	if err != nil {
		t.Fatalf("backend client: %v", err)
	}
	fake.Client = client
	return fake
}

// Requests returns what the fake backend received so far.
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Recorded, len(b.requests))
	copy(out, b.requests)
	return out
}

// Last returns the most recent request matching method and path.
func (b *Backend) Last(method, path string) (Recorded, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Recorded{}, false
}
