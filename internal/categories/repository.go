package categories

import (
	"context"
	"net/url"
)

// Backend is the subset of the REST client categories need.
type Backend interface {
	GetList(ctx context.Context, path string, query url.Values, out any) error
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

type Repository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id string) (Category, error)
	Create(ctx context.Context, category Category) (Category, error)
	Update(ctx context.Context, id string, category Category) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	api Backend
}

func NewRepository(api Backend) Repository {
	return &repository{api: api}
}

func (r *repository) List(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := r.api.GetList(ctx, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id string) (Category, error) {
	var out Category
	if err := r.api.Get(ctx, categoryPath(id), nil, &out); err != nil {
		return Category{}, err
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, category Category) (Category, error) {
	var out Category
	if err := r.api.Post(ctx, "/categories", category, &out); err != nil {
		return Category{}, err
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, id string, category Category) error {
	return r.api.Put(ctx, categoryPath(id), category, nil)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.api.Delete(ctx, categoryPath(id))
}

func categoryPath(id string) string {
	return "/categories/" + url.PathEscape(id)
}
