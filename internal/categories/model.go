package categories

import "github.com/evmotion/dealer-portal/internal/shared"

// Category groups vehicles in the catalog.
type Category struct {
	ID          shared.FlexString `json:"id,omitempty"`
	Name        string            `json:"name" form:"name" validate:"required,min=3"`
	Description string            `json:"description" form:"description" validate:"required"`
}
