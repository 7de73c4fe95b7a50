package categories

import (
	"strings"

	"github.com/evmotion/dealer-portal/internal/shared"
)

func normalize(c Category) Category {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	return c
}

func validate(c Category) error {
	return shared.Validate(c)
}
