package auth

import (
	"context"

	"github.com/evmotion/dealer-portal/internal/backend"
	"github.com/evmotion/dealer-portal/internal/session"
)

// Backend is the subset of the REST client login needs.
type Backend interface {
	Post(ctx context.Context, path string, body, out any) error
}

// Gateway exchanges credentials for an identity.
type Gateway interface {
	Login(ctx context.Context, email, password string) (session.Identity, error)
}

// BackendGateway authenticates against the dealership backend.
type BackendGateway struct {
	api Backend
}

// NewGateway constructs a BackendGateway.
func NewGateway(api Backend) *BackendGateway {
	return &BackendGateway{api: api}
}

// Login posts the credentials to /auth/login. The call never carries the
// token of an identity the browser may already hold.
func (g *BackendGateway) Login(ctx context.Context, email, password string) (session.Identity, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := g.api.Post(backend.Anonymous(ctx), "/auth/login", body, &resp); err != nil {
		return session.Identity{}, err
	}
	return resp.identity(), nil
}

var _ Gateway = (*BackendGateway)(nil)
