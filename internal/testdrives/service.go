package testdrives

import (
	"context"
	"errors"
	"strings"

	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
)

// ErrDealerMissing is returned when no dealer id could be resolved.
var ErrDealerMissing = errors.New("dealer id not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// DealerID prefers the explicit request parameter over the account's dealer.
func DealerID(requested string, account *session.Identity) string {
	if id := strings.TrimSpace(requested); id != "" {
		return id
	}
	if account != nil {
		return strings.TrimSpace(account.DealerID.String())
	}
	return ""
}

// List returns the dealer's test drives matching query.
func (s *Service) List(ctx context.Context, dealerID, query string) ([]TestDrive, error) {
	if dealerID == "" {
		return nil, ErrDealerMissing
	}
	all, err := s.repo.List(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	out := make([]TestDrive, 0, len(all))
	for _, td := range all {
		if shared.MatchesQuery(query, td.Fields()...) {
			out = append(out, td)
		}
	}
	return out, nil
}
