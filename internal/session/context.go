package session

import (
	"context"
	"net/http"

	"github.com/evmotion/dealer-portal/internal/rbac"
)

type stateContextKey struct{}

// ContextWithState stores the request state in context.
func ContextWithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateContextKey{}, st)
}

// FromContext extracts the request state from context.
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(stateContextKey{}).(*State)
	return st
}

// TokenFromContext returns the bearer token of the identity attached to ctx.
// It is read on every call so a login or logout earlier in the request is
// honoured.
func TokenFromContext(ctx context.Context) string {
	return FromContext(ctx).Token()
}

// Resolver adapts request state to the navigation guard.
type Resolver struct{}

// CurrentRole implements rbac.RoleResolver.
func (Resolver) CurrentRole(r *http.Request) (rbac.Role, bool) {
	return FromContext(r.Context()).Role()
}
