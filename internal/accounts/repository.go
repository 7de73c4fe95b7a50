package accounts

import (
	"context"
	"net/url"
)

// Backend is the subset of the REST client accounts need.
type Backend interface {
	GetList(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, a Account) error
	Update(ctx context.Context, msnv string, a Account) error
	Delete(ctx context.Context, msnv string) error
}

type repository struct {
	api Backend
}

func NewRepository(api Backend) Repository {
	return &repository{api: api}
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := r.api.GetList(ctx, "/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, a Account) error {
	return r.api.Post(ctx, "/accounts", a, nil)
}

func (r *repository) Update(ctx context.Context, msnv string, a Account) error {
	return r.api.Put(ctx, accountPath(msnv), a, nil)
}

func (r *repository) Delete(ctx context.Context, msnv string) error {
	return r.api.Delete(ctx, accountPath(msnv))
}

func accountPath(msnv string) string {
	return "/accounts/" + url.PathEscape(msnv)
}
