package memory

import (
	"context"

	"erpcore/internal/domain"
	"erpcore/internal/domain/registers/stock"
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	store *Store
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a movement repository.
func NewStockRepo(store *Store) *StockRepo {
	return &StockRepo{store: store}
}

func (r *StockRepo) CreateMovement(_ context.Context, m *stock.Movement) error {
	return r.store.write(func(d *dataset) error {
		d.movements.put(m.ID, *m)
		return nil
	})
}

// ListMovements returns movements newest first.
func (r *StockRepo) ListMovements(_ context.Context, filter stock.MovementFilter) (domain.ListResult[stock.Movement], error) {
	filter.Normalize()

	var rows []stock.Movement
	r.store.read(func(d *dataset) {
		for _, m := range d.movements.values() {
			if filter.ProductID != nil && m.ProductID != *filter.ProductID {
				continue
			}
			if filter.MovementType != nil && m.MovementType != *filter.MovementType {
				continue
			}
			if filter.SourceID != nil && (m.SourceID == nil || *m.SourceID != *filter.SourceID) {
				continue
			}
			if filter.FromDate != nil && m.CreatedAt.Before(*filter.FromDate) {
				continue
			}
			if filter.ToDate != nil && m.CreatedAt.After(*filter.ToDate) {
				continue
			}
			rows = append(rows, m)
		}
	})

	// Movements are appended in ledger order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return domain.Page(rows, filter.ListFilter), nil
}
