package document_repo

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/documents/purchase"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "purchase_orders"
	purchaseOrderItemsTable = "purchase_order_items"
)

// PurchaseOrderRepo implements purchase.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchase.PurchaseOrder]
}

var _ purchase.Repository = (*PurchaseOrderRepo)(nil)

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			purchaseOrdersTable, domain.AggregatePurchaseOrder,
			postgres.ExtractDBColumns[purchase.PurchaseOrder](),
			func() *purchase.PurchaseOrder { return &purchase.PurchaseOrder{} },
		),
	}
}

func (r *PurchaseOrderRepo) GetItems(ctx context.Context, poID id.ID) ([]purchase.Item, error) {
	return selectChildren[purchase.Item](ctx, r.txm, purchaseOrderItemsTable, "purchase_order_id", poID, "ORDER BY id")
}

func (r *PurchaseOrderRepo) SaveItems(ctx context.Context, poID id.ID, items []purchase.Item) error {
	return replaceChildren(ctx, r.txm, purchaseOrderItemsTable, "purchase_order_id", poID, items)
}

func (r *PurchaseOrderRepo) UpdateReceivedQty(ctx context.Context, itemID id.ID, qty types.Quantity) error {
	return setQuantity(ctx, r.txm, purchaseOrderItemsTable, "received_qty", itemID, qty, "purchase order item")
}
