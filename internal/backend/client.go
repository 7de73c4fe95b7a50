package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultRetryWaitMin = 200 * time.Millisecond
	defaultRetryWaitMax = 2 * time.Second
	maxBodyBytes        = 4 << 20
)

// TokenSource resolves the bearer token for an outbound call. It is consulted
// once per call; retries reuse the resolved token.
type TokenSource func(ctx context.Context) string

type resolvedTokenKey struct{}

// Anonymous returns a context whose backend calls carry no bearer token,
// whatever the TokenSource would resolve.
func Anonymous(ctx context.Context) context.Context {
	return withResolvedToken(ctx, "")
}

func withResolvedToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, resolvedTokenKey{}, token)
}

func resolveToken(ctx context.Context, tokens TokenSource) string {
	if token, ok := ctx.Value(resolvedTokenKey{}).(string); ok {
		return token
	}
	return tokens(ctx)
}

// Observer receives the outcome of every backend call. Status is zero when
// no response arrived.
type Observer interface {
	ObserveBackend(method, endpoint string, status int, elapsed time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RetryMax  int
	Tokens    TokenSource
	Logger    *slog.Logger
	Observer  Observer
	Transport http.RoundTripper
}

// Client calls the dealership REST backend on behalf of the signed-in user.
type Client struct {
	base     *url.URL
	http     *retryablehttp.Client
	tokens   TokenSource
	logger   *slog.Logger
	observer Observer
	group    singleflight.Group
}

// NewClient constructs a Client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = func(context.Context) string { return "" }
	}
	next := cfg.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = defaultRetryWaitMin
	retryClient.RetryWaitMax = defaultRetryWaitMax
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.HTTPClient.Transport = &bearerTransport{next: next, tokens: tokens}
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	if cfg.Logger != nil {
		retryClient.Logger = cfg.Logger
	}

	return &Client{
		base:     base,
		http:     retryClient,
		tokens:   tokens,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}, nil
}

// retryPolicy retries connection failures, and gateway errors for reads only.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false, nil
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}

// bearerTransport stamps the common headers on every attempt, including
// retries.
type bearerTransport struct {
	next   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Set("Accept", "application/json")
	out.Header.Set("ngrok-skip-browser-warning", "true")
	if token := resolveToken(req.Context(), t.tokens); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	return t.next.RoundTrip(out)
}

// Get decodes the JSON document at path into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.fetch(ctx, path, query)
	if err != nil {
		return err
	}
	return decode(http.MethodGet, path, data, out)
}

// GetList decodes the JSON array at path into out. A body that is not an
// array yields ErrUnexpectedShape.
func (c *Client) GetList(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.fetch(ctx, path, query)
	if err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: GET %s did not return a list", ErrUnexpectedShape, path)
	}
	return decode(http.MethodGet, path, trimmed, out)
}

// Post sends body as JSON and decodes the response into out when non-nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out when non-nil.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPut, path, body, out)
}

// Delete removes the resource at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil)
}

// fetch collapses concurrent identical reads. Waiters keep their own
// cancellation; the shared call runs detached from any single caller.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.resolve(path, query)
	token := resolveToken(ctx, c.tokens)
	key := http.MethodGet + " " + token + " " + target
	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		return c.do(withResolvedToken(context.WithoutCancel(ctx), token), http.MethodGet, path, target, nil)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}
	ctx = withResolvedToken(ctx, resolveToken(ctx, c.tokens))
	data, err := c.do(ctx, method, path, c.resolve(path, nil), payload)
	if err != nil {
		return err
	}
	return decode(method, path, data, out)
}

func (c *Client) do(ctx context.Context, method, path, target string, payload []byte) ([]byte, error) {
	var body interface{}
	if payload != nil {
		body = payload
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, path, 0, start)
		return nil, fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.observe(method, path, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := newStatusError(method, path, resp.StatusCode, data)
		if c.logger != nil {
			c.logger.Warn("backend request failed", slog.String("method", method), slog.String("path", path), slog.Int("status", resp.StatusCode))
		}
		return nil, statusErr
	}
	return data, nil
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackend(method, Endpoint(path), status, time.Since(start))
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Endpoint reduces a request path to its first segment so metric labels stay
// bounded.
func Endpoint(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

func decode(method, path string, data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnexpectedShape, method, path, err)
	}
	return nil
}
