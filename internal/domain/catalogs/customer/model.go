// Package customer provides the Customer catalog with contacts and
// duplicate merging.
package customer

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/id"
)

var validate = validator.New()

// Customer is a buyer referenced by orders, invoices and quotes.
type Customer struct {
	entity.Catalog

	// Code is the generated customer number (CUS000001)
	Code string `db:"code" json:"code"`

	Email   string `db:"email" json:"email,omitempty"`
	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
	TaxID   string `db:"tax_id" json:"taxId,omitempty"`
	Notes   string `db:"notes" json:"notes,omitempty"`
}

// NewCustomer creates an active customer. The code is assigned on create.
func NewCustomer(name string) *Customer {
	return &Customer{Catalog: entity.NewCatalog(name)}
}

// Validate implements entity.Validatable interface.
// The phone number is normalized to E.164 as a side effect.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	if err := validateEmail(c.Email); err != nil {
		return err
	}
	phone, err := NormalizePhone(c.Phone, DefaultPhoneRegion)
	if err != nil {
		return err
	}
	c.Phone = phone
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if err := validate.Var(email, "email"); err != nil {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email")
	}
	return nil
}

// Contact is a person at a customer. At most one contact per customer is primary.
type Contact struct {
	ID         id.ID     `db:"id" json:"id"`
	CustomerID id.ID     `db:"customer_id" json:"customerId"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email,omitempty"`
	Phone      string    `db:"phone" json:"phone,omitempty"`
	Role       string    `db:"role" json:"role,omitempty"`
	IsPrimary  bool      `db:"is_primary" json:"isPrimary"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// NewContact creates a contact for customerID.
func NewContact(customerID id.ID, name string) *Contact {
	return &Contact{
		ID:         id.New(),
		CustomerID: customerID,
		Name:       strings.TrimSpace(name),
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate checks contact fields.
func (c *Contact) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("contact name is required").
			WithDetail("field", "name")
	}
	if err := validateEmail(c.Email); err != nil {
		return err
	}
	phone, err := NormalizePhone(c.Phone, DefaultPhoneRegion)
	if err != nil {
		return err
	}
	c.Phone = phone
	return nil
}
