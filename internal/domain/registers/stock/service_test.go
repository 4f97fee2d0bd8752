package stock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/registers/stock"
)

func TestRecord(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "10")

	m, err := env.Stock.Record(env.Ctx, stock.Entry{ProductID: p.ID, Type: stock.MovementOut, Quantity: types.MustQuantity("3")})
	require.NoError(t, err)
	assert.Equal(t, stock.SourceManual, m.SourceType)
	assert.True(t, m.PreviousStock.Equal(types.MustQuantity("10")))
	assert.True(t, m.NewStock.Equal(types.MustQuantity("7")))
	assert.Equal(t, "tester@example.com", m.CreatedBy)

	m, err = env.Stock.Record(env.Ctx, stock.Entry{ProductID: p.ID, Type: stock.MovementAdjustment, Quantity: types.MustQuantity("42")})
	require.NoError(t, err)
	assert.True(t, m.NewStock.Equal(types.MustQuantity("42")))
	assert.True(t, env.StockOf(t, p.ID).Equal(types.MustQuantity("42")))
}

func TestRecord_Failures(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "2")
	svc := env.Service(t, "INSTALL", "50", "19")

	tests := []struct {
		name  string
		entry stock.Entry
		code  string
	}{
		{"insufficient", stock.Entry{ProductID: p.ID, Type: stock.MovementOut, Quantity: types.MustQuantity("3")}, apperror.CodeInsufficientStock},
		{"zero quantity", stock.Entry{ProductID: p.ID, Type: stock.MovementIn, Quantity: types.MustQuantity("0")}, apperror.CodeNonPositiveQuantity},
		{"negative quantity", stock.Entry{ProductID: p.ID, Type: stock.MovementIn, Quantity: types.MustQuantity("-1")}, apperror.CodeNonPositiveQuantity},
		{"service", stock.Entry{ProductID: svc.ID, Type: stock.MovementIn, Quantity: types.MustQuantity("1")}, apperror.CodeStockNotTracked},
		{"unknown type", stock.Entry{ProductID: p.ID, Type: "transfer", Quantity: types.MustQuantity("1")}, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Stock.Record(env.Ctx, tt.entry)
			require.True(t, apperror.HasCode(err, tt.code), "got %v", err)
			appErr, _ := apperror.AsAppError(err)
			assert.True(t, appErr.NonIdempotent)
		})
	}
	assert.True(t, env.StockOf(t, p.ID).Equal(types.MustQuantity("2")))
}

func TestLedgerMatchesStock(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "0")

	for _, e := range []stock.Entry{
		{Type: stock.MovementIn, Quantity: types.MustQuantity("12.5")},
		{Type: stock.MovementOut, Quantity: types.MustQuantity("2.25")},
		{Type: stock.MovementIn, Quantity: types.MustQuantity("1")},
		{Type: stock.MovementOut, Quantity: types.MustQuantity("4")},
	} {
		e.ProductID = p.ID
		_, err := env.Stock.Record(env.Ctx, e)
		require.NoError(t, err)
	}

	moves, err := env.Stock.ListMovements(env.Ctx, stock.MovementFilter{ProductID: &p.ID})
	require.NoError(t, err)
	require.Len(t, moves.Items, 4)

	level := types.Zero()
	for i := len(moves.Items) - 1; i >= 0; i-- {
		m := moves.Items[i]
		assert.True(t, m.PreviousStock.Equal(level))
		level = m.NewStock
	}
	assert.True(t, level.Equal(env.StockOf(t, p.ID)))
	assert.True(t, level.Equal(types.MustQuantity("7.25")))
}

func TestLowStock(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "3")
	env.Product(t, "TABLE", "100", "19", "50")

	p.MinStock = types.MustQuantity("5")
	require.NoError(t, env.Products.Update(env.Ctx, p))

	res, err := env.Products.LowStock(env.Ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, p.ID, res.Items[0].ID)
}
