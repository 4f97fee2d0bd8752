package delivery

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
)

// Repository defines operations for delivery notes.
type Repository interface {
	Create(ctx context.Context, d *DeliveryNote) error
	GetByID(ctx context.Context, noteID id.ID) (*DeliveryNote, error)
	GetForUpdate(ctx context.Context, noteID id.ID) (*DeliveryNote, error)
	Update(ctx context.Context, d *DeliveryNote) error

	GetLines(ctx context.Context, noteID id.ID) ([]Line, error)
	// SaveLines replaces all lines of the note.
	SaveLines(ctx context.Context, noteID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*DeliveryNote], error)
}

// ListFilter for filtering delivery notes.
type ListFilter struct {
	domain.ListFilter

	OrderID *id.ID
}
