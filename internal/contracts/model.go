package contracts

import (
	"github.com/evmotion/dealer-portal/internal/shared"
)

// Payment statuses offered on the create form.
var PaymentStatuses = []string{"Pending", "Paid", "Failed"}

// DefaultPaymentStatus is recorded when the form leaves the status blank.
const DefaultPaymentStatus = "Pending"

// Contract is a sale contract row as listed by the backend.
type Contract struct {
	ID            shared.FlexString `json:"id"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone,omitempty"`
	VehicleModel  string            `json:"vehicleModel"`
	ContractDate  string            `json:"contractDate"`
	TotalAmount   any               `json:"totalAmount"`
	PaymentStatus string            `json:"paymentStatus"`
}

// Customer is an entry of the create form's customer picker. The backend
// serves either customer records or user records here.
type Customer struct {
	ID    shared.FlexString
	Name  string
	Phone string
	Email string
}

// Label is what the picker shows for c.
func (c Customer) Label() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	default:
		return c.Phone
	}
}

// Key selects c in the picker. Phones identify customers; records without
// one fall back to their id.
func (c Customer) Key() string {
	if c.Phone != "" {
		return c.Phone
	}
	return c.ID.String()
}

type customerWire struct {
	ID            shared.FlexString `json:"id"`
	CustomerName  string            `json:"customerName"`
	Name          string            `json:"name"`
	CustomerPhone shared.FlexString `json:"customerPhone"`
	Phone         shared.FlexString `json:"phone"`
	CustomerEmail string            `json:"customerEmail"`
	Email         string            `json:"email"`
}

func (w customerWire) customer() Customer {
	return Customer{
		ID:    w.ID,
		Name:  firstNonEmpty(w.CustomerName, w.Name),
		Phone: firstNonEmpty(w.CustomerPhone.String(), w.Phone.String()),
		Email: firstNonEmpty(w.CustomerEmail, w.Email),
	}
}

// Form is the create-contract form as submitted by the browser.
type Form struct {
	Customer        string `form:"customer"`
	CustomerName    string `form:"customerName"`
	CustomerPhone   string `form:"customerPhone" validate:"omitempty,numeric"`
	CustomerEmail   string `form:"customerEmail" validate:"omitempty,email"`
	VehicleID       string `form:"vehicleId" validate:"required"`
	ContractDate    string `form:"contractDate" validate:"omitempty,datetime=2006-01-02"`
	PromotionAmount string `form:"promotionAmount" validate:"omitempty,numeric"`
	TotalAmount     string `form:"totalAmount" validate:"required,numeric"`
	DealerID        string `form:"dealerId"`
	PaymentMethodID string `form:"paymentMethodId" validate:"omitempty,numeric"`
	PaymentStatus   string `form:"paymentStatus" validate:"omitempty,oneof=Pending Paid Failed"`
}

// Payload is the body of a contract creation request.
type Payload struct {
	CustomerName    string  `json:"customerName"`
	CustomerPhone   string  `json:"customerPhone"`
	CustomerEmail   string  `json:"customerEmail"`
	VehicleID       string  `json:"vehicleId"`
	ContractDate    string  `json:"contractDate"`
	PromotionAmount float64 `json:"promotionAmount"`
	TotalAmount     float64 `json:"totalAmount"`
	DealerID        string  `json:"dealerId"`
	PaymentMethodID int64   `json:"paymentMethodId"`
	PaymentStatus   string  `json:"paymentStatus"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
