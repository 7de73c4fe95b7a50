package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/shared"
)

var (
	// ErrInvalidMSNV indicates a blank employee id in a route.
	ErrInvalidMSNV = fmt.Errorf("account msnv: %w", shared.ErrInvalidID)
	// ErrAccountNotFound indicates no listed account has the employee id.
	ErrAccountNotFound = errors.New("account not found")
)

// DuplicateMSNVMessage is shown when a new account reuses an employee id.
const DuplicateMSNVMessage = "Employee ID (MSNV) already exists!"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the accounts matching query on employee id, email, phone or
// role.
func (s *Service) List(ctx context.Context, query string) ([]Account, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(all))
	for _, a := range all {
		if shared.MatchesQuery(query, a.MSNV, a.Email, a.Phone, string(a.Role)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Service) Find(ctx context.Context, msnv string) (Account, error) {
	if strings.TrimSpace(msnv) == "" {
		return Account{}, ErrInvalidMSNV
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return Account{}, err
	}
	for _, a := range all {
		if a.MSNV == msnv {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

// Create provisions a new account. Employee ids must be unique.
func (s *Service) Create(ctx context.Context, form Form) error {
	form = normalize(form)
	fields := shared.FieldErrors(form)
	if fields == nil {
		fields = map[string]string{}
	}
	checkRole(form, fields)
	if form.Password == "" {
		fields["password"] = "Please provide an initial password!"
	}
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range existing {
		if strings.EqualFold(a.MSNV, form.MSNV) {
			return &shared.ValidationError{Fields: map[string]string{"msnv": DuplicateMSNVMessage}}
		}
	}
	return s.repo.Create(ctx, account(form))
}

// Update stores form over the account msnv. The employee id itself and the
// password are not changed here.
func (s *Service) Update(ctx context.Context, msnv string, form Form) error {
	if strings.TrimSpace(msnv) == "" {
		return ErrInvalidMSNV
	}
	form.MSNV = msnv
	form.Password = ""
	form = normalize(form)
	fields := shared.FieldErrors(form)
	if fields == nil {
		fields = map[string]string{}
	}
	checkRole(form, fields)
	if len(fields) > 0 {
		return &shared.ValidationError{Fields: fields}
	}
	return s.repo.Update(ctx, msnv, account(form))
}

func (s *Service) Delete(ctx context.Context, msnv string) error {
	if strings.TrimSpace(msnv) == "" {
		return ErrInvalidMSNV
	}
	return s.repo.Delete(ctx, msnv)
}

func checkRole(form Form, fields map[string]string) {
	if _, exists := fields["role"]; exists {
		return
	}
	if _, ok := rbac.ParseRole(form.Role); !ok {
		fields["role"] = "Role is invalid"
	}
}

func account(form Form) Account {
	role, _ := rbac.ParseRole(form.Role)
	return Account{MSNV: form.MSNV, Email: form.Email, Phone: form.Phone, Role: role, Password: form.Password}
}

func normalize(form Form) Form {
	form.MSNV = strings.TrimSpace(form.MSNV)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Role = strings.TrimSpace(form.Role)
	return form
}
