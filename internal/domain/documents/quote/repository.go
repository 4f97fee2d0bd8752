package quote

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
)

// Repository defines operations for quotes.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, quoteID id.ID) (*Quote, error)
	GetForUpdate(ctx context.Context, quoteID id.ID) (*Quote, error)
	Update(ctx context.Context, q *Quote) error

	GetLines(ctx context.Context, quoteID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, quoteID id.ID, lines []Line) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Quote], error)
}
