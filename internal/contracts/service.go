package contracts

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/shared"
	"github.com/evmotion/dealer-portal/internal/session"
)

// ErrCreateForbidden is returned when the role may not create contracts.
var ErrCreateForbidden = errors.New("role cannot create contracts")

// Filter narrows the contract list.
type Filter struct {
	Query         string
	PaymentStatus string
}

// Apply returns the contracts matching f, keeping their order.
func (f Filter) Apply(all []Contract) []Contract {
	out := make([]Contract, 0, len(all))
	for _, c := range all {
		if f.PaymentStatus != "" && c.PaymentStatus != f.PaymentStatus {
			continue
		}
		if !shared.MatchesQuery(f.Query, c.ID.String(), c.CustomerName, c.VehicleModel) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Listing is a filtered contract list plus the payment statuses present in
// the unfiltered data.
type Listing struct {
	Contracts []Contract
	Statuses  []string
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, f Filter) (Listing, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Listing{}, err
	}
	statuses := make([]string, 0, len(all))
	for _, c := range all {
		statuses = append(statuses, c.PaymentStatus)
	}
	return Listing{Contracts: f.Apply(all), Statuses: shared.DistinctSorted(statuses)}, nil
}

// Customers loads the picker entries. Failures are returned so the caller
// can log them; the form stays usable without a picker.
func (s *Service) Customers(ctx context.Context) ([]Customer, error) {
	return s.repo.Customers(ctx)
}

// Draft seeds a create form. The customer matching key fills the customer
// fields, and the account's dealer id fills the dealer field.
func (s *Service) Draft(customers []Customer, key string, account *session.Identity) Form {
	form := Form{
		ContractDate:    s.now().Format("2006-01-02"),
		PromotionAmount: "0",
		TotalAmount:     "0",
		PaymentStatus:   DefaultPaymentStatus,
	}
	if account != nil {
		form.DealerID = account.DealerID.String()
	}
	if key == "" {
		return form
	}
	form.Customer = key
	for _, c := range customers {
		if c.Key() == key {
			form.CustomerName = c.Name
			form.CustomerPhone = c.Phone
			form.CustomerEmail = c.Email
			return form
		}
	}
	form.CustomerPhone = shared.DigitsOnly(key, 0)
	return form
}

// Create validates form and sends the contract to the backend.
func (s *Service) Create(ctx context.Context, role rbac.Role, form Form) (Payload, error) {
	if !rbac.CanPerform(role, rbac.ActionCreateContract) {
		return Payload{}, ErrCreateForbidden
	}
	payload, err := s.payload(form)
	if err != nil {
		return Payload{}, err
	}
	if err := s.repo.Create(ctx, payload); err != nil {
		return Payload{}, err
	}
	return payload, nil
}

func (s *Service) payload(form Form) (Payload, error) {
	form = normalize(form)
	if err := shared.Validate(form); err != nil {
		return Payload{}, err
	}

	promotion := parseAmount(form.PromotionAmount)
	total := parseAmount(form.TotalAmount)
	method, _ := strconv.ParseInt(form.PaymentMethodID, 10, 64)
	fields := map[string]string{}
	if promotion < 0 {
		fields["promotionAmount"] = "Promotion amount must be 0 or more"
	}
	if total < 0 {
		fields["totalAmount"] = "Total amount must be 0 or more"
	}
	if method < 0 {
		fields["paymentMethodId"] = "Payment method ID must be 0 or more"
	}
	if len(fields) > 0 {
		return Payload{}, &shared.ValidationError{Fields: fields}
	}

	date := s.now().UTC()
	if form.ContractDate != "" {
		date, _ = time.Parse("2006-01-02", form.ContractDate)
	}
	status := form.PaymentStatus
	if status == "" {
		status = DefaultPaymentStatus
	}
	return Payload{
		CustomerName:    form.CustomerName,
		CustomerPhone:   form.CustomerPhone,
		CustomerEmail:   form.CustomerEmail,
		VehicleID:       form.VehicleID,
		ContractDate:    date.Format(time.RFC3339Nano),
		PromotionAmount: promotion,
		TotalAmount:     total,
		DealerID:        form.DealerID,
		PaymentMethodID: method,
		PaymentStatus:   status,
	}, nil
}

func normalize(form Form) Form {
	form.CustomerName = strings.TrimSpace(form.CustomerName)
	form.CustomerPhone = strings.TrimSpace(form.CustomerPhone)
	form.CustomerEmail = strings.TrimSpace(form.CustomerEmail)
	form.VehicleID = strings.TrimSpace(form.VehicleID)
	form.ContractDate = strings.TrimSpace(form.ContractDate)
	form.PromotionAmount = strings.TrimSpace(form.PromotionAmount)
	form.TotalAmount = strings.TrimSpace(form.TotalAmount)
	form.DealerID = strings.TrimSpace(form.DealerID)
	form.PaymentMethodID = strings.TrimSpace(form.PaymentMethodID)
	form.PaymentStatus = strings.TrimSpace(form.PaymentStatus)
	return form
}

func parseAmount(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}
