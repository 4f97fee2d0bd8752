package customer

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// GetForUpdate retrieves a customer with row lock.
	GetForUpdate(ctx context.Context, customerID id.ID) (*Customer, error)

	// Contacts
	ListContacts(ctx context.Context, customerID id.ID) ([]Contact, error)
	CreateContact(ctx context.Context, contact *Contact) error

	// ReassignContacts moves every contact of fromID to toID. When
	// clearPrimary is set the moved contacts lose their primary flag.
	ReassignContacts(ctx context.Context, fromID, toID id.ID, clearPrimary bool) error
}

// Reader is the read side of the catalog used by document services.
type Reader interface {
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
}
