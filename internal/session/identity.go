package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/shared"
)

// Identity is the signed-in account as confirmed by the backend. Only Login
// replaces it and only Logout clears it.
type Identity struct {
	Role     rbac.Role         `json:"role"`
	Name     string            `json:"name,omitempty"`
	DealerID shared.FlexString `json:"dealerId,omitempty"`
	UserID   shared.FlexString `json:"userId,omitempty"`
	Token    string            `json:"token"`
	Remember bool              `json:"remember,omitempty"`
}

// Validate reports whether the identity carries a known role and a token.
func (id Identity) Validate() error {
	if !id.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, id.Role)
	}
	if strings.TrimSpace(id.Token) == "" {
		return fmt.Errorf("%w: token missing", ErrInvalidIdentity)
	}
	return nil
}

// DisplayName is the name shown in the dashboard header.
func (id Identity) DisplayName() string {
	if id.Name != "" {
		return id.Name
	}
	return id.UserID.String()
}

func encodeIdentity(id Identity) (string, error) {
	data, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeIdentity parses a stored entry. Fields outside the identity record
// are dropped.
func decodeIdentity(raw string) (*Identity, error) {
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, err
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return &id, nil
}
