package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderLinesTable = "order_lines"
)

// OrderRepo implements order.Repository.
type OrderRepo struct {
	*BaseDocumentRepo[*order.Order]
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			ordersTable, domain.AggregateOrder,
			postgres.ExtractDBColumns[order.Order](),
			func() *order.Order { return &order.Order{} },
		),
	}
}

func (r *OrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]order.Line, error) {
	return selectChildren[order.Line](ctx, r.txm, orderLinesTable, "order_id", orderID, "ORDER BY position")
}

// GetLinesForUpdate locks the lines in id order so concurrent deliveries
// of the same order acquire locks in the same sequence.
func (r *OrderRepo) GetLinesForUpdate(ctx context.Context, orderID id.ID) ([]order.Line, error) {
	return selectChildren[order.Line](ctx, r.txm, orderLinesTable, "order_id", orderID, "ORDER BY id FOR UPDATE")
}

func (r *OrderRepo) SaveLines(ctx context.Context, orderID id.ID, lines []order.Line) error {
	return replaceChildren(ctx, r.txm, orderLinesTable, "order_id", orderID, lines)
}

func (r *OrderRepo) UpdateDeliveredQty(ctx context.Context, lineID id.ID, qty types.Quantity) error {
	return setQuantity(ctx, r.txm, orderLinesTable, "delivered_qty", lineID, qty, "order line")
}

// CountActiveDeliveries counts the order's delivery notes that are not cancelled.
func (r *OrderRepo) CountActiveDeliveries(ctx context.Context, orderID id.ID) (int, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		From(deliveryNotesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		Where(squirrel.NotEq{"status": string(delivery.StatusCancelled)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count deliveries: %w", err)
	}

	var n int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return n, nil
}
