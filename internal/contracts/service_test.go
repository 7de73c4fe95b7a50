package contracts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/shared"
)

type stubRepo struct {
	contracts []Contract
	customers []Customer
	created   []Payload
}

func (s *stubRepo) List(ctx context.Context) ([]Contract, error)      { return s.contracts, nil }
func (s *stubRepo) Customers(ctx context.Context) ([]Customer, error) { return s.customers, nil }
func (s *stubRepo) Create(ctx context.Context, p Payload) error {
	s.created = append(s.created, p)
	return nil
}

func newService(repo *stubRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 3, 9, 10, 30, 0, 0, time.UTC) }
	return svc
}

func TestListFiltersAndCollectsStatuses(t *testing.T) {
	svc := newService(&stubRepo{contracts: []Contract{
		{ID: "1", CustomerName: "An Nguyen", VehicleModel: "Model 3", PaymentStatus: "Paid"},
		{ID: "2", CustomerName: "Binh Tran", VehicleModel: "VF8", PaymentStatus: "Pending"},
		{ID: "3", CustomerName: "Chi Le", VehicleModel: "VF8", PaymentStatus: "Paid"},
		{ID: "4", CustomerName: "Dung Pham", VehicleModel: "Ioniq 5"},
	}})

	listing, err := svc.List(context.Background(), Filter{Query: "vf8", PaymentStatus: "Paid"})
	require.NoError(t, err)
	require.Len(t, listing.Contracts, 1)
	assert.Equal(t, "3", listing.Contracts[0].ID.String())
	assert.Equal(t, []string{"Paid", "Pending"}, listing.Statuses)

	listing, err = svc.List(context.Background(), Filter{Query: "4"})
	require.NoError(t, err)
	require.Len(t, listing.Contracts, 1)
	assert.Equal(t, "Dung Pham", listing.Contracts[0].CustomerName)
}

func TestDraftPrefillsCustomerAndDefaults(t *testing.T) {
	svc := newService(&stubRepo{})
	customers := []Customer{{Name: "An Nguyen", Phone: "0901234567", Email: "an@example.com"}}
	account := &session.Identity{Role: rbac.RoleDealerStaff, DealerID: "7", Token: "t"}

	form := svc.Draft(customers, "0901234567", account)
	assert.Equal(t, "An Nguyen", form.CustomerName)
	assert.Equal(t, "an@example.com", form.CustomerEmail)
	assert.Equal(t, "7", form.DealerID)
	assert.Equal(t, "2025-03-09", form.ContractDate)
	assert.Equal(t, DefaultPaymentStatus, form.PaymentStatus)

	form = svc.Draft(nil, "090-111", nil)
	assert.Equal(t, "090111", form.CustomerPhone)
	assert.Empty(t, form.DealerID)
}

func TestCreateBuildsPayload(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)

	payload, err := svc.Create(context.Background(), rbac.RoleDealerManager, Form{
		CustomerName:    "An Nguyen",
		CustomerPhone:   "0901234567",
		VehicleID:       " 12 ",
		TotalAmount:     "45000",
		PromotionAmount: "",
		PaymentMethodID: "2",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "12", payload.VehicleID)
	assert.Equal(t, 45000.0, payload.TotalAmount)
	assert.Zero(t, payload.PromotionAmount)
	assert.EqualValues(t, 2, payload.PaymentMethodID)
	assert.Equal(t, "Pending", payload.PaymentStatus)
	assert.Equal(t, "2025-03-09T10:30:00Z", payload.ContractDate)

	payload, err = svc.Create(context.Background(), rbac.RoleAdmin, Form{VehicleID: "1", TotalAmount: "1", ContractDate: "2025-01-31", PaymentStatus: "Paid"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31T00:00:00Z", payload.ContractDate)
	assert.Equal(t, "Paid", payload.PaymentStatus)
}

func TestCreateRejectsInvalidForms(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo)

	_, err := svc.Create(context.Background(), rbac.RoleAdmin, Form{TotalAmount: "abc", CustomerEmail: "nope", PaymentStatus: "Unknown"})
	var validationErr *shared.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Vehicle ID is required", validationErr.Fields["vehicleId"])
	assert.Equal(t, "Total amount must be numbers only", validationErr.Fields["totalAmount"])
	assert.Equal(t, "Invalid email", validationErr.Fields["customerEmail"])
	assert.Contains(t, validationErr.Fields, "paymentStatus")

	_, err = svc.Create(context.Background(), rbac.RoleAdmin, Form{VehicleID: "1", TotalAmount: "-5"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "Total amount must be 0 or more", validationErr.Fields["totalAmount"])
	assert.Empty(t, repo.created)
}

func TestCreateRequiresPermission(t *testing.T) {
	repo := &stubRepo{}
	_, err := newService(repo).Create(context.Background(), rbac.RoleEVMStaff, Form{VehicleID: "1", TotalAmount: "1"})
	assert.ErrorIs(t, err, ErrCreateForbidden)
	assert.Empty(t, repo.created)
}
