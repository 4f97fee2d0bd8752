package stock

import (
	"context"
	"time"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
)

// Repository persists stock movements. Movements are never updated.
type Repository interface {
	CreateMovement(ctx context.Context, m *Movement) error
	ListMovements(ctx context.Context, filter MovementFilter) (domain.ListResult[Movement], error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	domain.ListFilter

	ProductID    *id.ID
	MovementType *MovementType
	SourceID     *id.ID
	FromDate     *time.Time
	ToDate       *time.Time
}
