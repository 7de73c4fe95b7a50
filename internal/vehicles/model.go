package vehicles

import (
	"strconv"
	"strings"
	"time"

	"github.com/evmotion/dealer-portal/internal/shared"
)

// Vehicle is a catalog entry as served by the backend. Optional
// specifications are empty when the backend omits them.
type Vehicle struct {
	ID           shared.FlexString `json:"id"`
	Manufacturer string            `json:"manufacturer"`
	Model        string            `json:"model"`
	Price        shared.FlexString `json:"price"`
	Battery      shared.FlexString `json:"battery,omitempty"`
	Range        shared.FlexString `json:"range,omitempty"`
	Acceleration shared.FlexString `json:"acceleration,omitempty"`
	DriveType    shared.FlexString `json:"driveType,omitempty"`
	ChargingTime shared.FlexString `json:"chargingTime,omitempty"`
	ColorOptions []string          `json:"colorOptions,omitempty"`
}

// UnitPrice returns the price as a number, zero when it is not numeric.
func (v Vehicle) UnitPrice() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Price.String()), 64)
	if err != nil {
		return 0
	}
	return f
}

// DisplayName joins manufacturer and model.
func (v Vehicle) DisplayName() string {
	return strings.TrimSpace(v.Manufacturer + " " + v.Model)
}

// Quantity bounds of an order request.
const (
	MinOrderQuantity = 1
	MaxOrderQuantity = 10
)

// MaxCompare is the number of vehicles that can be compared side by side.
const MaxCompare = 3

// OrderRecipient is recorded on order requests until EVM staff assignment is
// handled by the backend.
const OrderRecipient = "EVM Staff (TBD)"

// OrderRequest asks EVM staff to allocate vehicles to the dealer.
type OrderRequest struct {
	CarID       shared.FlexString `json:"carId"`
	Quantity    int               `json:"quantity"`
	AssignedTo  string            `json:"assignedTo"`
	UnitPrice   float64           `json:"unitPrice"`
	Total       float64           `json:"total"`
	RequestedAt time.Time         `json:"requestedAt"`
}

// ClampQuantity forces n into the accepted order range.
func ClampQuantity(n int) int {
	if n < MinOrderQuantity {
		return MinOrderQuantity
	}
	if n > MaxOrderQuantity {
		return MaxOrderQuantity
	}
	return n
}

// NewOrderRequest prices an order for v.
func NewOrderRequest(v Vehicle, quantity int, now time.Time) OrderRequest {
	quantity = ClampQuantity(quantity)
	unit := v.UnitPrice()
	return OrderRequest{
		CarID:       v.ID,
		Quantity:    quantity,
		AssignedTo:  OrderRecipient,
		UnitPrice:   unit,
		Total:       unit * float64(quantity),
		RequestedAt: now.UTC(),
	}
}
