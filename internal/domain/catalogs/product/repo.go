package product

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetByReference retrieves a product by its unique reference.
	GetByReference(ctx context.Context, reference string) (*Product, error)

	// GetForUpdate retrieves a product with row lock.
	GetForUpdate(ctx context.Context, productID id.ID) (*Product, error)

	// SetStock overwrites stock_qty. Callers record the matching movement.
	SetStock(ctx context.Context, productID id.ID, qty types.Quantity) error

	// ListLowStock retrieves tracked products with stock below minimum.
	ListLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
}
