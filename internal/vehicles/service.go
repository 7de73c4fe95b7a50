package vehicles

import (
	"context"
	"errors"
	"time"

	"github.com/evmotion/dealer-portal/internal/rbac"
)

var (
	// ErrVehicleNotFound indicates an id that is not in the catalog.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrTooManySelected is returned when more than MaxCompare vehicles are picked.
	ErrTooManySelected = errors.New("you can compare up to 3 cars")
	// ErrTooFewSelected is returned when fewer than two vehicles are picked.
	ErrTooFewSelected = errors.New("select at least two cars to compare")
	// ErrOrderForbidden indicates a role that may not request vehicles.
	ErrOrderForbidden = errors.New("your role cannot place order requests")
)

// Catalog is the filtered listing plus the filter options.
type Catalog struct {
	Vehicles      []Vehicle
	Manufacturers []string
	Total         int
}

// Service implements the catalog use cases.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Catalog lists the vehicles matching f. Manufacturer options always come
// from the unfiltered catalog.
func (s *Service) Catalog(ctx context.Context, f Filter) (Catalog, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{
		Vehicles:      f.Apply(all),
		Manufacturers: Manufacturers(all),
		Total:         len(all),
	}, nil
}

// Get returns the vehicle with id.
func (s *Service) Get(ctx context.Context, id string) (Vehicle, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Vehicle{}, err
	}
	for _, v := range all {
		if v.ID.String() == id {
			return v, nil
		}
	}
	return Vehicle{}, ErrVehicleNotFound
}

// Compare lays out two to three vehicles side by side. Unknown ids are
// ignored.
func (s *Service) Compare(ctx context.Context, ids []string) (Comparison, error) {
	ids = distinct(ids)
	if len(ids) > MaxCompare {
		return Comparison{}, ErrTooManySelected
	}
	if len(ids) < 2 {
		return Comparison{}, ErrTooFewSelected
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return Comparison{}, err
	}
	byID := make(map[string]Vehicle, len(all))
	for _, v := range all {
		byID[v.ID.String()] = v
	}
	selected := make([]Vehicle, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			selected = append(selected, v)
		}
	}
	if len(selected) < 2 {
		return Comparison{}, ErrTooFewSelected
	}
	return Compare(selected), nil
}

// QuoteOrder prices an order without sending it.
func (s *Service) QuoteOrder(ctx context.Context, role rbac.Role, id string, quantity int) (Vehicle, OrderRequest, error) {
	if !rbac.CanPerform(role, rbac.ActionOrderVehicle) {
		return Vehicle{}, OrderRequest{}, ErrOrderForbidden
	}
	v, err := s.Get(ctx, id)
	if err != nil {
		return Vehicle{}, OrderRequest{}, err
	}
	return v, NewOrderRequest(v, quantity, s.now()), nil
}

// PlaceOrder sends an order request to EVM staff.
func (s *Service) PlaceOrder(ctx context.Context, role rbac.Role, id string, quantity int) (OrderRequest, error) {
	_, order, err := s.QuoteOrder(ctx, role, id, quantity)
	if err != nil {
		return OrderRequest{}, err
	}
	if err := s.repo.SubmitOrder(ctx, order); err != nil {
		return OrderRequest{}, err
	}
	return order, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
