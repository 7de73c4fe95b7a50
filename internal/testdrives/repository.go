package testdrives

import (
	"context"
	"net/url"
)

// Backend is the subset of the REST client test drives need.
type Backend interface {
	GetList(ctx context.Context, path string, query url.Values, out any) error
}

type Repository interface {
	List(ctx context.Context, dealerID string) ([]TestDrive, error)
}

type repository struct {
	api Backend
}

func NewRepository(api Backend) Repository {
	return &repository{api: api}
}

func (r *repository) List(ctx context.Context, dealerID string) ([]TestDrive, error) {
	var out []TestDrive
	if err := r.api.GetList(ctx, "/test-drives", url.Values{"dealerId": {dealerID}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
