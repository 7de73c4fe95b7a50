package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
)

// ErrInvalidCredentials covers every failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service wraps authentication business rules.
type Service struct {
	gateway Gateway
}

// NewService constructs a new Service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// Authenticate validates the form and asks the backend for an identity.
// Identities without a known role or a token are refused.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (session.Identity, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := shared.Validate(creds); err != nil {
		return session.Identity{}, err
	}
	id, err := s.gateway.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		return session.Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if err := id.Validate(); err != nil {
		return session.Identity{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	id.Remember = creds.Remember
	return id, nil
}
