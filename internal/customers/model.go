package customers

import "github.com/evmotion/dealer-portal/internal/shared"

// MaxPhoneDigits bounds a customer phone number.
const MaxPhoneDigits = 10

// Customer is a dealership customer. The phone number identifies it.
type Customer struct {
	Phone   shared.FlexString `json:"phone"`
	Name    string            `json:"name"`
	Email   string            `json:"email"`
	Address string            `json:"address"`
	Note    string            `json:"note"`
}

// Form is the add/edit form. Phone is already reduced to digits when it is
// validated.
type Form struct {
	Phone   string `form:"phone" validate:"required,numeric,max=10"`
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"omitempty,email"`
	Address string `form:"address"`
	Note    string `form:"note"`
}

// FormFor fills the form from an existing customer.
func FormFor(c Customer) Form {
	return Form{
		Phone:   c.Phone.String(),
		Name:    c.Name,
		Email:   c.Email,
		Address: c.Address,
		Note:    c.Note,
	}
}

func (f Form) customer() Customer {
	return Customer{
		Phone:   shared.FlexString(f.Phone),
		Name:    f.Name,
		Email:   f.Email,
		Address: f.Address,
		Note:    f.Note,
	}
}
