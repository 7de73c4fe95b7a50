package vehicles

import (
	"context"
	"net/url"
)

// Backend is the subset of the REST client the catalog needs.
type Backend interface {
	GetList(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Repository reads the catalog and forwards order requests.
type Repository interface {
	List(ctx context.Context) ([]Vehicle, error)
	SubmitOrder(ctx context.Context, order OrderRequest) error
}

type repository struct {
	api Backend
}

// NewRepository returns a Repository backed by the REST backend.
func NewRepository(api Backend) Repository {
	return &repository{api: api}
}

func (r *repository) List(ctx context.Context) ([]Vehicle, error) {
	var out []Vehicle
	if err := r.api.GetList(ctx, "/vehicles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) SubmitOrder(ctx context.Context, order OrderRequest) error {
	return r.api.Post(ctx, "/evm-requests", order, nil)
}
