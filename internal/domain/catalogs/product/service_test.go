package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/product"
)

func TestCreate_DuplicateReference(t *testing.T) {
	env := apptest.New(t)
	env.Product(t, "CHAIR", "100", "19", "0")

	dup := product.NewProduct("Another chair", "CHAIR")
	err := env.Products.Create(env.Ctx, dup)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	table := env.Product(t, "TABLE", "250", "19", "0")
	table.Reference = "CHAIR"
	err = env.Products.Update(env.Ctx, table)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestUpdate_KeepsStock(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "8")

	p.StockQty = types.MustQuantity("1000")
	p.UnitPrice = types.MustMoney("120")
	require.NoError(t, env.Products.Update(env.Ctx, p))

	got := env.ReloadProduct(t, p.ID)
	assert.True(t, got.StockQty.Equal(types.MustQuantity("8")))
	assert.True(t, got.UnitPrice.Equal(types.MustMoney("120")))
}

func TestUpdate_CannotUntrackHeldStock(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "2")

	p.TrackStock = false
	err := env.Products.Update(env.Ctx, p)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	empty := env.Product(t, "STOOL", "40", "19", "0")
	empty.TrackStock = false
	assert.NoError(t, env.Products.Update(env.Ctx, empty))
}

func TestDelete_Referenced(t *testing.T) {
	env := apptest.New(t)
	moved := env.Product(t, "CHAIR", "100", "19", "1")
	unused := env.Product(t, "STOOL", "40", "19", "0")

	err := env.Products.Delete(env.Ctx, moved.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeReferenced))

	require.NoError(t, env.Products.Delete(env.Ctx, unused.ID))
	_, err = env.Products.GetByID(env.Ctx, unused.ID)
	assert.True(t, apperror.IsNotFound(err))
}
