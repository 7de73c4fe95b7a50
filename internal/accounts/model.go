package accounts

import "github.com/evmotion/dealer-portal/internal/rbac"

// Account is a staff login managed by administrators. The employee id
// (MSNV) identifies it.
type Account struct {
	MSNV     string    `json:"msnv"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Role     rbac.Role `json:"role"`
	Password string    `json:"password,omitempty"`
}

// Form is the add/edit form. The password is only collected on creation.
type Form struct {
	MSNV     string `form:"msnv" validate:"required"`
	Email    string `form:"email" validate:"required,email"`
	Phone    string `form:"phone" validate:"required"`
	Role     string `form:"role" validate:"required"`
	Password string `form:"password"`
}

// FormFor fills the form from an existing account.
func FormFor(a Account) Form {
	return Form{MSNV: a.MSNV, Email: a.Email, Phone: a.Phone, Role: string(a.Role)}
}
