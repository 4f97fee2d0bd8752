package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/lineitem"
)

func TestCreate_PricesFromProduct(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "0")
	c := env.Customer(t, "Acme")

	o, err := env.Orders.Create(env.Ctx, order.CreateInput{
		CustomerID: c.ID,
		Lines:      []lineitem.Input{apptest.Line(p, "10")},
	})
	require.NoError(t, err)

	assert.Equal(t, "ORD000001", o.Code)
	assert.Equal(t, order.StatusDraft, o.Status)
	assert.Equal(t, "DZD", o.Currency)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, "Product CHAIR", o.Lines[0].Description)
	assert.True(t, o.Subtotal.Equal(types.MustMoney("1000")))
	assert.True(t, o.TaxTotal.Equal(types.MustMoney("190")))
	assert.True(t, o.Total.Equal(types.MustMoney("1190")))
}

func TestCreate_TotalsAreSumOfLines(t *testing.T) {
	env := apptest.New(t)
	a := env.Product(t, "A", "19.99", "7.5", "0")
	b := env.Product(t, "B", "0.333", "19", "0")
	c := env.Customer(t, "Acme")

	price := types.MustMoney("12.50")
	o, err := env.Orders.Create(env.Ctx, order.CreateInput{
		CustomerID: c.ID,
		Lines: []lineitem.Input{
			apptest.Line(a, "2"),
			apptest.Line(b, "3"),
			{Description: "Freight", Quantity: types.MustQuantity("1"), UnitPrice: &price},
		},
	})
	require.NoError(t, err)

	sub, tax, total := types.Zero(), types.Zero(), types.Zero()
	for _, l := range o.Lines {
		assert.True(t, l.Total.Equal(l.Subtotal.Add(l.TaxAmount)))
		sub, tax, total = sub.Add(l.Subtotal), tax.Add(l.TaxAmount), total.Add(l.Total)
	}
	assert.True(t, o.Subtotal.Equal(sub))
	assert.True(t, o.TaxTotal.Equal(tax))
	assert.True(t, o.Total.Equal(total))
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.TaxTotal)))

	stored, err := env.Orders.Get(env.Ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(o.Total))
	assert.Len(t, stored.Lines, 3)
}

func TestCreate_UnknownCustomer(t *testing.T) {
	env := apptest.New(t)
	c := env.Customer(t, "Acme")
	require.NoError(t, env.Customers.Delete(env.Ctx, c.ID))

	_, err := env.Orders.Create(env.Ctx, order.CreateInput{CustomerID: c.ID})
	assert.True(t, apperror.IsNotFound(err))
}

func TestConfirm(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "0")
	c := env.Customer(t, "Acme")

	t.Run("empty order", func(t *testing.T) {
		o, err := env.Orders.Create(env.Ctx, order.CreateInput{CustomerID: c.ID})
		require.NoError(t, err)

		_, err = env.Orders.Confirm(env.Ctx, o.ID)
		assert.True(t, apperror.HasCode(err, apperror.CodeEmptyOrder))

		stored, err := env.Orders.Get(env.Ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusDraft, stored.Status)
	})

	t.Run("twice", func(t *testing.T) {
		o := env.ConfirmedOrder(t, c, apptest.Line(p, "1"))
		assert.Equal(t, order.StatusConfirmed, o.Status)

		_, err := env.Orders.Confirm(env.Ctx, o.ID)
		assert.True(t, apperror.HasCode(err, apperror.CodeOrderNotDraft))
	})
}

func TestUpdate_OnlyDrafts(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "0")
	c := env.Customer(t, "Acme")

	o, err := env.Orders.Create(env.Ctx, order.CreateInput{CustomerID: c.ID, Lines: []lineitem.Input{apptest.Line(p, "1")}})
	require.NoError(t, err)

	notes := "call before delivery"
	o, err = env.Orders.Update(env.Ctx, o.ID, order.UpdateInput{
		Notes: &notes,
		Lines: []lineitem.Input{apptest.Line(p, "3")},
	})
	require.NoError(t, err)
	assert.Equal(t, notes, o.Notes)
	assert.True(t, o.Total.Equal(types.MustMoney("357")))

	_, err = env.Orders.Confirm(env.Ctx, o.ID)
	require.NoError(t, err)

	_, err = env.Orders.Update(env.Ctx, o.ID, order.UpdateInput{Notes: &notes})
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderNotDraft))
}

func TestCancel(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "20")
	c := env.Customer(t, "Acme")
	o := env.ConfirmedOrder(t, c, apptest.Line(p, "10"))

	note, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{
		OrderID: o.ID,
		Lines:   []delivery.LineInput{{OrderLineID: o.Lines[0].ID, Quantity: types.MustQuantity("4")}},
	})
	require.NoError(t, err)

	_, err = env.Orders.Cancel(env.Ctx, o.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeHasActiveDeliveries))

	_, err = env.Deliveries.Cancel(env.Ctx, note.ID)
	require.NoError(t, err)

	cancelled, err := env.Orders.Cancel(env.Ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	_, err = env.Orders.Cancel(env.Ctx, o.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderAlreadyCancelled))

	assert.Equal(t,
		[]string{"order.created", "order.confirmed", "order.cancelled"},
		env.Events.Types(o.ID))
}
