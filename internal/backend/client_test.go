package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmotion/dealer-portal/internal/backend"
)

type tokenKey struct{}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func withToken(token string) context.Context {
	return context.WithValue(context.Background(), tokenKey{}, token)
}

func newClient(t *testing.T, srv *httptest.Server, retries int) *backend.Client {
	t.Helper()
	client, err := backend.NewClient(backend.Config{
		BaseURL:  srv.URL + "/api",
		Timeout:  2 * time.Second,
		RetryMax: retries,
		Tokens:   tokenFromContext,
	})
	require.NoError(t, err)
	return client
}

func TestAuthorizationHeaderFollowsToken(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Clone())
		mu.Unlock()
		assert.Equal(t, "/api/vehicles", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	client := newClient(t, srv, 0)

	var out []map[string]any
	require.NoError(t, client.GetList(withToken("abc"), "/vehicles", nil, &out))
	require.NoError(t, client.GetList(withToken(""), "/vehicles", nil, &out))
	require.NoError(t, client.GetList(withToken("xyz"), "vehicles", nil, &out))

	require.Len(t, headers, 3)
	assert.Equal(t, "Bearer abc", headers[0].Get("Authorization"))
	assert.Empty(t, headers[1].Values("Authorization"))
	assert.Equal(t, "Bearer xyz", headers[2].Get("Authorization"))
	for _, h := range headers {
		assert.Equal(t, "application/json", h.Get("Accept"))
		assert.Equal(t, "true", h.Get("ngrok-skip-browser-warning"))
	}
}

func TestTokenResolvedOncePerCall(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get("Authorization"))
		first := len(headers) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var calls atomic.Int32
	client, err := backend.NewClient(backend.Config{
		BaseURL:  srv.URL,
		Timeout:  2 * time.Second,
		RetryMax: 1,
		Tokens: func(context.Context) string {
			if calls.Add(1) == 1 {
				return "first"
			}
			return "rotated"
		},
	})
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, client.GetList(context.Background(), "/vehicles", nil, &out))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"Bearer first", "Bearer first"}, headers)
}

func TestAnonymousCallsOmitBearer(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Clone())
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	client := newClient(t, srv, 0)

	require.NoError(t, client.Post(backend.Anonymous(withToken("abc")), "/auth/login", map[string]string{"email": "a@b.c"}, nil))
	require.NoError(t, client.Post(withToken("abc"), "/auth/login", map[string]string{"email": "a@b.c"}, nil))

	require.Len(t, headers, 2)
	assert.Empty(t, headers[0].Values("Authorization"))
	assert.Equal(t, "Bearer abc", headers[1].Get("Authorization"))
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()
	client := newClient(t, srv, 2)

	err := client.Get(withToken("stale"), "/accounts", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrUnauthorized))

	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
	assert.Equal(t, "token expired", backend.Message(err, "fallback"))
}

func TestGetListRejectsObjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()
	client := newClient(t, srv, 0)

	var out []map[string]any
	err := client.GetList(context.Background(), "/sale-contracts", nil, &out)
	assert.ErrorIs(t, err, backend.ErrUnexpectedShape)
}

func TestGetRetriesGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 1}]`))
	}))
	defer srv.Close()
	client := newClient(t, srv, 2)

	var out []struct {
		ID int `json:"id"`
	}
	require.NoError(t, client.GetList(context.Background(), "/categories", nil, &out))
	assert.Len(t, out, 1)
	assert.EqualValues(t, 2, calls.Load())
}

func TestWritesAreNotRetriedOnGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := newClient(t, srv, 3)

	err := client.Post(context.Background(), "/evm-requests", map[string]any{"carId": "1"}, nil)
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
	assert.EqualValues(t, 1, calls.Load())
}

func TestPostSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 9, "name": "SUV"}`))
	}))
	defer srv.Close()
	client := newClient(t, srv, 0)

	var created struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, client.Post(withToken("abc"), "/categories", map[string]string{"name": "SUV"}, &created))
	assert.Equal(t, 9, created.ID)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/customers", backend.Endpoint("/customers/0901234567"))
	assert.Equal(t, "/vehicles", backend.Endpoint("vehicles"))
	assert.Equal(t, "/", backend.Endpoint(""))
}

func TestNewClientRequiresAbsoluteURL(t *testing.T) {
	_, err := backend.NewClient(backend.Config{BaseURL: "/relative"})
	assert.Error(t, err)
}
