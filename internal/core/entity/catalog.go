package entity

import (
	"context"
	"strings"

	"erpcore/internal/core/apperror"
)

// Catalog is the base type for reference data (products, customers).
type Catalog struct {
	BaseEntity

	// Name is the display name
	Name string `db:"name" json:"name"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewCatalog creates a new active Catalog with generated ID.
func NewCatalog(name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		IsActive:   true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
