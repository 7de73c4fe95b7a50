package auth

import (
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
	Remember bool   `form:"remember"`
}

// loginResponse is the identity returned by the backend's login endpoint.
// Deployments differ on a few field names.
type loginResponse struct {
	Role        string            `json:"role"`
	Token       string            `json:"token"`
	AccessToken string            `json:"accessToken"`
	Name        string            `json:"name"`
	FullName    string            `json:"fullName"`
	DealerID    shared.FlexString `json:"dealerId"`
	UserID      shared.FlexString `json:"userId"`
	ID          shared.FlexString `json:"id"`
}

func (r loginResponse) identity() session.Identity {
	role, _ := rbac.ParseRole(r.Role)
	id := session.Identity{
		Role:     role,
		Name:     r.Name,
		DealerID: r.DealerID,
		UserID:   r.UserID,
		Token:    r.Token,
	}
	if id.Token == "" {
		id.Token = r.AccessToken
	}
	if id.Name == "" {
		id.Name = r.FullName
	}
	if id.UserID.IsZero() {
		id.UserID = r.ID
	}
	return id
}
