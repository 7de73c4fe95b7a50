package customers

import (
	"context"
	"net/url"
)

// Backend is the subset of the REST client customers need.
type Backend interface {
	GetList(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

type Repository interface {
	List(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, c Customer) error
	Update(ctx context.Context, phone string, c Customer) error
}

type repository struct {
	api Backend
}

func NewRepository(api Backend) Repository {
	return &repository{api: api}
}

func (r *repository) List(ctx context.Context) ([]Customer, error) {
	var out []Customer
	if err := r.api.GetList(ctx, "/customers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, c Customer) error {
	return r.api.Post(ctx, "/customers", c, nil)
}

// Update replaces the customer currently stored under phone; c may carry a
// new phone number.
func (r *repository) Update(ctx context.Context, phone string, c Customer) error {
	return r.api.Put(ctx, "/customers/"+url.PathEscape(phone), c, nil)
}
