package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/infrastructure/storage/postgres"
)

const (
	deliveryNotesTable     = "delivery_notes"
	deliveryNoteLinesTable = "delivery_note_lines"
)

// DeliveryNoteRepo implements delivery.Repository.
type DeliveryNoteRepo struct {
	*BaseDocumentRepo[*delivery.DeliveryNote]
}

var _ delivery.Repository = (*DeliveryNoteRepo)(nil)

// NewDeliveryNoteRepo creates a new delivery note repository.
func NewDeliveryNoteRepo(txm *postgres.TxManager) *DeliveryNoteRepo {
	return &DeliveryNoteRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			deliveryNotesTable, domain.AggregateDeliveryNote,
			postgres.ExtractDBColumns[delivery.DeliveryNote](),
			func() *delivery.DeliveryNote { return &delivery.DeliveryNote{} },
		),
	}
}

func (r *DeliveryNoteRepo) GetLines(ctx context.Context, noteID id.ID) ([]delivery.Line, error) {
	return selectChildren[delivery.Line](ctx, r.txm, deliveryNoteLinesTable, "delivery_note_id", noteID, "ORDER BY id")
}

func (r *DeliveryNoteRepo) SaveLines(ctx context.Context, noteID id.ID, lines []delivery.Line) error {
	return replaceChildren(ctx, r.txm, deliveryNoteLinesTable, "delivery_note_id", noteID, lines)
}

// List narrows the standard document filter to one order when OrderID is set.
func (r *DeliveryNoteRepo) List(ctx context.Context, filter delivery.ListFilter) (domain.ListResult[*delivery.DeliveryNote], error) {
	var cond squirrel.Sqlizer
	if filter.OrderID != nil {
		cond = squirrel.Eq{"order_id": *filter.OrderID}
	}
	return r.ListWhere(ctx, filter.ListFilter, cond)
}
