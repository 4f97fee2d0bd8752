package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/id"
	"erpcore/internal/domain/registers/stock"
)

func TestMovementQuery_Filters(t *testing.T) {
	repo := NewStockRepo(nil)
	productID := id.New()
	movementType := stock.MovementOut
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	q := repo.movementQuery(stock.MovementFilter{
		ProductID:    &productID,
		MovementType: &movementType,
		FromDate:     &from,
	})

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM stock_movements WHERE product_id = $1 AND movement_type = $2 AND created_at >= $3")
	assert.Equal(t, []any{productID, "out", from}, args)
}

func TestMovementQuery_NoFilters(t *testing.T) {
	repo := NewStockRepo(nil)

	sql, args, err := repo.movementQuery(stock.MovementFilter{}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, args)
	assert.Contains(t, sql, "previous_stock")
	assert.Contains(t, sql, "new_stock")
}
