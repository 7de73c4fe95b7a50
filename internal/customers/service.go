package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evmotion/dealer-portal/internal/shared"
)

var (
	// ErrInvalidPhone indicates a missing phone in an edit route.
	ErrInvalidPhone = fmt.Errorf("customer phone: %w", shared.ErrInvalidID)
	// ErrCustomerNotFound indicates no listed customer has the phone.
	ErrCustomerNotFound = errors.New("customer not found")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the customers matching query on phone, name, email, address
// or note.
func (s *Service) List(ctx context.Context, query string) ([]Customer, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Customer, 0, len(all))
	for _, c := range all {
		if shared.MatchesQuery(query, c.Phone.String(), c.Name, c.Email, c.Address, c.Note) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Find looks a customer up by phone. The backend has no single-customer
// read, so the list is scanned.
func (s *Service) Find(ctx context.Context, phone string) (Customer, error) {
	if strings.TrimSpace(phone) == "" {
		return Customer{}, ErrInvalidPhone
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return Customer{}, err
	}
	for _, c := range all {
		if c.Phone.String() == phone {
			return c, nil
		}
	}
	return Customer{}, ErrCustomerNotFound
}

func (s *Service) Create(ctx context.Context, form Form) error {
	form = normalize(form)
	if err := shared.Validate(form); err != nil {
		return err
	}
	return s.repo.Create(ctx, form.customer())
}

// Update stores form over the customer known by originalPhone.
func (s *Service) Update(ctx context.Context, originalPhone string, form Form) error {
	if strings.TrimSpace(originalPhone) == "" {
		return ErrInvalidPhone
	}
	form = normalize(form)
	if err := shared.Validate(form); err != nil {
		return err
	}
	return s.repo.Update(ctx, originalPhone, form.customer())
}

func normalize(form Form) Form {
	form.Phone = shared.DigitsOnly(form.Phone, MaxPhoneDigits)
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Address = strings.TrimSpace(form.Address)
	form.Note = strings.TrimSpace(form.Note)
	return form
}
