package order

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
)

// Repository defines operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	Update(ctx context.Context, o *Order) error

	// GetForUpdate retrieves the header with row lock.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	GetLines(ctx context.Context, orderID id.ID) ([]Line, error)

	// GetLinesForUpdate locks the lines in id order.
	GetLinesForUpdate(ctx context.Context, orderID id.ID) ([]Line, error)

	// SaveLines replaces all lines of the order.
	SaveLines(ctx context.Context, orderID id.ID, lines []Line) error

	UpdateDeliveredQty(ctx context.Context, lineID id.ID, qty types.Quantity) error

	// CountActiveDeliveries counts delivery notes of the order that are not cancelled.
	CountActiveDeliveries(ctx context.Context, orderID id.ID) (int, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Order], error)
}
