package purchase

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
)

// Repository defines operations for purchase orders.
type Repository interface {
	Create(ctx context.Context, po *PurchaseOrder) error
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)
	GetForUpdate(ctx context.Context, poID id.ID) (*PurchaseOrder, error)
	Update(ctx context.Context, po *PurchaseOrder) error

	GetItems(ctx context.Context, poID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, poID id.ID, items []Item) error
	UpdateReceivedQty(ctx context.Context, itemID id.ID, qty types.Quantity) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*PurchaseOrder], error)
}
