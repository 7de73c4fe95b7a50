package contracts

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/evmotion/dealer-portal/internal/backend"
)

// Backend is the subset of the REST client contracts need.
type Backend interface {
	GetList(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Repository reads and creates sale contracts.
type Repository interface {
	List(ctx context.Context) ([]Contract, error)
	Customers(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, payload Payload) error
}

// Deployments of the backend expose contracts under either path.
const (
	primaryPath  = "/sale-contracts"
	fallbackPath = "/contracts"
)

type repository struct {
	api Backend
}

// NewRepository returns a Repository backed by the REST backend.
func NewRepository(api Backend) Repository {
	return &repository{api: api}
}

func (r *repository) List(ctx context.Context) ([]Contract, error) {
	var out []Contract
	err := r.api.GetList(ctx, primaryPath, nil, &out)
	if shouldRetryRead(err) {
		out = nil
		err = r.api.GetList(ctx, fallbackPath, nil, &out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Customers(ctx context.Context) ([]Customer, error) {
	var wire []customerWire
	err := r.api.GetList(ctx, "/customers", nil, &wire)
	if shouldRetryRead(err) {
		wire = nil
		err = r.api.GetList(ctx, "/users", nil, &wire)
	}
	if err != nil {
		return nil, err
	}
	out := make([]Customer, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.customer())
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, payload Payload) error {
	err := r.api.Post(ctx, primaryPath, payload, nil)
	if routeMissing(err) {
		err = r.api.Post(ctx, fallbackPath, payload, nil)
	}
	return err
}

// shouldRetryRead reports whether a failed read may be repeated on the
// alternate path. Rejected tokens and malformed bodies are final.
func shouldRetryRead(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, backend.ErrUnauthorized) && !errors.Is(err, backend.ErrUnexpectedShape)
}

// routeMissing reports whether the backend does not serve the primary write
// path, so the request never reached a handler.
func routeMissing(err error) bool {
	var statusErr *backend.StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch statusErr.Status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return false
}
