package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/evmotion/dealer-portal/internal/shared"
)

// ErrInvalidID indicates a missing category id.
var ErrInvalidID = fmt.Errorf("category: %w", shared.ErrInvalidID)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the categories whose name or description contains query.
func (s *Service) List(ctx context.Context, query string) ([]Category, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Category, 0, len(all))
	for _, c := range all {
		if shared.MatchesQuery(query, c.ID.String(), c.Name, c.Description) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Category, error) {
	if strings.TrimSpace(id) == "" {
		return Category{}, ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, category Category) (Category, error) {
	category = normalize(category)
	if err := validate(category); err != nil {
		return Category{}, err
	}
	return s.repo.Create(ctx, category)
}

func (s *Service) Update(ctx context.Context, id string, category Category) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	category = normalize(category)
	if err := validate(category); err != nil {
		return err
	}
	category.ID = shared.FlexString(id)
	return s.repo.Update(ctx, id, category)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}
