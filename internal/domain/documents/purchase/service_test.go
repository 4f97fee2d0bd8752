package purchase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/documents/purchase"
	"erpcore/internal/domain/registers/stock"
)

func newPO(t *testing.T, env *apptest.Env, items ...purchase.ItemInput) *purchase.PurchaseOrder {
	t.Helper()
	po, err := env.Purchases.Create(env.Ctx, purchase.CreateInput{SupplierName: "Wood & Co", Items: items})
	require.NoError(t, err)
	return po
}

func item(p *product.Product, qty, price string) purchase.ItemInput {
	return purchase.ItemInput{ProductID: p.ID, Quantity: types.MustQuantity(qty), UnitPrice: types.MustMoney(price)}
}

func TestCreate(t *testing.T) {
	env := apptest.New(t)
	a := env.Product(t, "A", "10", "19", "0")
	b := env.Product(t, "B", "10", "19", "0")

	po := newPO(t, env, item(a, "3", "1.115"), item(b, "2.5", "4"))
	assert.Equal(t, "PO000001", po.Code)
	assert.Equal(t, purchase.StatusDraft, po.Status)
	// 3 × 1.12 + 2.5 × 4
	assert.True(t, po.TotalAmount.Equal(types.MustMoney("13.36")), "got %s", po.TotalAmount)

	_, err := env.Purchases.Create(env.Ctx, purchase.CreateInput{SupplierName: "Wood & Co"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	svc := env.Service(t, "INSTALL", "50", "19")
	_, err = env.Purchases.Create(env.Ctx, purchase.CreateInput{SupplierName: "Wood & Co", Items: []purchase.ItemInput{item(svc, "1", "1")}})
	assert.True(t, apperror.HasCode(err, apperror.CodeStockNotTracked))
}

func TestStatusFlow(t *testing.T) {
	env := apptest.New(t)
	a := env.Product(t, "A", "10", "19", "0")
	po := newPO(t, env, item(a, "1", "1"))

	po, err := env.Purchases.MarkSent(env.Ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusSent, po.Status)

	_, err = env.Purchases.MarkSent(env.Ctx, po.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidPOStatus))

	po, err = env.Purchases.Confirm(env.Ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusConfirmed, po.Status)

	po, err = env.Purchases.Cancel(env.Ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusCancelled, po.Status)

	_, err = env.Purchases.Receive(env.Ctx, po.ID, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodePOCancelled))
	_, err = env.Purchases.Cancel(env.Ctx, po.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodePOCancelled))
}

func TestReceive(t *testing.T) {
	env := apptest.New(t)
	a := env.Product(t, "A", "10", "19", "5")
	b := env.Product(t, "B", "10", "19", "0")
	po := newPO(t, env, item(a, "10", "2"), item(b, "4", "3"))

	at := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	po, err := env.Purchases.Receive(env.Ctx, po.ID, &at)
	require.NoError(t, err)

	assert.Equal(t, purchase.StatusReceived, po.Status)
	require.NotNil(t, po.ActualDeliveryDate)
	assert.True(t, po.ActualDeliveryDate.Equal(at))
	for _, it := range po.Items {
		assert.True(t, it.ReceivedQty.Equal(it.Quantity))
	}
	assert.True(t, env.StockOf(t, a.ID).Equal(types.MustQuantity("15")))
	assert.True(t, env.StockOf(t, b.ID).Equal(types.MustQuantity("4")))

	moves, err := env.Stock.ListMovements(env.Ctx, stock.MovementFilter{SourceID: &po.ID})
	require.NoError(t, err)
	assert.Len(t, moves.Items, 2)
	for _, m := range moves.Items {
		assert.Equal(t, stock.MovementIn, m.MovementType)
		assert.Equal(t, stock.SourcePurchaseOrder, m.SourceType)
	}

	_, err = env.Purchases.Receive(env.Ctx, po.ID, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodePOAlreadyReceived))
	_, err = env.Purchases.Cancel(env.Ctx, po.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodePOAlreadyReceived))
}

func TestReceivePartial(t *testing.T) {
	env := apptest.New(t)
	a := env.Product(t, "A", "10", "19", "0")
	b := env.Product(t, "B", "10", "19", "0")
	po := newPO(t, env, item(a, "10", "2"), item(b, "4", "3"))
	itemA, itemB := po.Items[0].ID, po.Items[1].ID

	receipt := func(itemID id.ID, qty string) purchase.Receipt {
		return purchase.Receipt{ItemID: itemID, Quantity: types.MustQuantity(qty)}
	}

	_, err := env.Purchases.ReceivePartial(env.Ctx, po.ID, nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = env.Purchases.ReceivePartial(env.Ctx, po.ID, []purchase.Receipt{receipt(id.New(), "1")})
	assert.True(t, apperror.HasCode(err, apperror.CodeLineNotOnOrder))

	// zero is skipped, six is received
	po, err = env.Purchases.ReceivePartial(env.Ctx, po.ID, []purchase.Receipt{receipt(itemA, "6"), receipt(itemB, "0")})
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusDraft, po.Status)
	assert.True(t, env.StockOf(t, a.ID).Equal(types.MustQuantity("6")))
	assert.True(t, env.StockOf(t, b.ID).IsZero())

	// 9 is clamped to the remaining 4
	po, err = env.Purchases.ReceivePartial(env.Ctx, po.ID, []purchase.Receipt{receipt(itemA, "9"), receipt(itemB, "4")})
	require.NoError(t, err)
	assert.Equal(t, purchase.StatusReceived, po.Status)
	assert.NotNil(t, po.ActualDeliveryDate)
	assert.True(t, env.StockOf(t, a.ID).Equal(types.MustQuantity("10")))
	assert.True(t, env.StockOf(t, b.ID).Equal(types.MustQuantity("4")))

	_, err = env.Purchases.ReceivePartial(env.Ctx, po.ID, []purchase.Receipt{receipt(itemA, "1")})
	assert.True(t, apperror.HasCode(err, apperror.CodePOAlreadyReceived))
}
