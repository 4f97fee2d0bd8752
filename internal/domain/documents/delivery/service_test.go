package delivery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app/apptest"
	"erpcore/internal/core/apperror"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/registers/stock"
)

func ship(orderLine order.Line, qty string) delivery.LineInput {
	return delivery.LineInput{OrderLineID: orderLine.ID, Quantity: types.MustQuantity(qty)}
}

func TestMarkDelivered_PartialThenFull(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "20")
	c := env.Customer(t, "Acme")
	o := env.ConfirmedOrder(t, c, apptest.Line(p, "10"))

	first, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{OrderID: o.ID, Lines: []delivery.LineInput{ship(o.Lines[0], "4")}})
	require.NoError(t, err)
	assert.Equal(t, "BL000001", first.Code)

	first, err = env.Deliveries.MarkDelivered(env.Ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusDelivered, first.Status)
	assert.NotNil(t, first.DeliveredAt)

	o, err = env.Orders.Get(env.Ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPartiallyDelivered, o.Status)
	assert.True(t, o.Lines[0].DeliveredQty.Equal(types.MustQuantity("4")))
	assert.True(t, env.StockOf(t, p.ID).Equal(types.MustQuantity("16")))

	second, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{OrderID: o.ID, Lines: []delivery.LineInput{ship(o.Lines[0], "6")}})
	require.NoError(t, err)
	_, err = env.Deliveries.MarkDelivered(env.Ctx, second.ID)
	require.NoError(t, err)

	o, err = env.Orders.Get(env.Ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, o.Status)
	assert.True(t, o.Lines[0].DeliveredQty.Equal(o.Lines[0].Quantity))
	assert.True(t, env.StockOf(t, p.ID).Equal(types.MustQuantity("10")))

	out := stock.MovementOut
	moves, err := env.Stock.ListMovements(env.Ctx, stock.MovementFilter{ProductID: &p.ID, MovementType: &out})
	require.NoError(t, err)
	require.Len(t, moves.Items, 2)
	for _, m := range moves.Items {
		assert.Equal(t, stock.SourceDeliveryNote, m.SourceType)
		assert.True(t, m.NewStock.Equal(m.PreviousStock.Sub(m.Quantity)))
	}

	_, err = env.Deliveries.MarkDelivered(env.Ctx, second.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyDelivered))
	_, err = env.Deliveries.Cancel(env.Ctx, second.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeAlreadyDelivered))
}

func TestCreate_Validation(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "50")
	other := env.Product(t, "TABLE", "300", "19", "50")
	c := env.Customer(t, "Acme")
	o := env.ConfirmedOrder(t, c, apptest.Line(p, "10"))
	foreign := env.ConfirmedOrder(t, c, apptest.Line(other, "1"))

	tests := []struct {
		name  string
		lines []delivery.LineInput
		code  string
	}{
		{"no lines", nil, apperror.CodeValidation},
		{"more than ordered", []delivery.LineInput{ship(o.Lines[0], "12")}, apperror.CodeQuantityExceedsRemaining},
		{"zero quantity", []delivery.LineInput{ship(o.Lines[0], "0")}, apperror.CodeValidation},
		{"line of another order", []delivery.LineInput{ship(foreign.Lines[0], "1")}, apperror.CodeLineNotOnOrder},
		{"same line twice", []delivery.LineInput{ship(o.Lines[0], "1"), ship(o.Lines[0], "1")}, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{OrderID: o.ID, Lines: tt.lines})
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCreate_DraftOrderRejected(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "50")
	c := env.Customer(t, "Acme")
	o, err := env.Orders.Create(env.Ctx, order.CreateInput{CustomerID: c.ID})
	require.NoError(t, err)

	_, err = env.Deliveries.Create(env.Ctx, delivery.CreateInput{OrderID: o.ID, Lines: []delivery.LineInput{{OrderLineID: p.ID, Quantity: types.MustQuantity("1")}}})
	assert.True(t, apperror.HasCode(err, apperror.CodeOrderNotConfirmable))
}

func TestMarkDelivered_FailureLeavesNoTrace(t *testing.T) {
	env := apptest.New(t)
	chair := env.Product(t, "CHAIR", "100", "19", "10")
	lamp := env.Product(t, "LAMP", "40", "19", "3")
	table := env.Product(t, "TABLE", "300", "19", "4")
	c := env.Customer(t, "Acme")
	o := env.ConfirmedOrder(t, c, apptest.Line(chair, "5"), apptest.Line(lamp, "3"), apptest.Line(table, "4"))

	note, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{
		OrderID: o.ID,
		Lines:   []delivery.LineInput{ship(o.Lines[0], "5"), ship(o.Lines[1], "3"), ship(o.Lines[2], "4")},
	})
	require.NoError(t, err)

	// stock of the middle product drops after the note was drafted
	_, err = env.Stock.Record(env.Ctx, stock.Entry{ProductID: lamp.ID, Type: stock.MovementOut, Quantity: types.MustQuantity("2")})
	require.NoError(t, err)
	eventsBefore := len(env.Events.Events())

	_, err = env.Deliveries.MarkDelivered(env.Ctx, note.ID)
	require.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock), "got %v", err)

	assert.True(t, env.StockOf(t, chair.ID).Equal(types.MustQuantity("10")))
	assert.True(t, env.StockOf(t, lamp.ID).Equal(types.MustQuantity("1")))
	assert.True(t, env.StockOf(t, table.ID).Equal(types.MustQuantity("4")), "line after the failing one is untouched")

	o, err = env.Orders.Get(env.Ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	require.Len(t, o.Lines, 3)
	for _, l := range o.Lines {
		assert.True(t, l.DeliveredQty.IsZero(), "line %d delivered %s", l.Position, l.DeliveredQty)
	}

	note, err = env.Deliveries.Get(env.Ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusDraft, note.Status)
	assert.Nil(t, note.DeliveredAt)
	assert.Len(t, env.Events.Events(), eventsBefore)
}

func TestMarkDelivered_RechecksRemaining(t *testing.T) {
	env := apptest.New(t)
	p := env.Product(t, "CHAIR", "100", "19", "50")
	c := env.Customer(t, "Acme")
	o := env.ConfirmedOrder(t, c, apptest.Line(p, "10"))

	// both drafts fit the remaining quantity on their own
	a, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{OrderID: o.ID, Lines: []delivery.LineInput{ship(o.Lines[0], "6")}})
	require.NoError(t, err)
	b, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{OrderID: o.ID, Lines: []delivery.LineInput{ship(o.Lines[0], "6")}})
	require.NoError(t, err)

	_, err = env.Deliveries.MarkDelivered(env.Ctx, a.ID)
	require.NoError(t, err)
	_, err = env.Deliveries.MarkDelivered(env.Ctx, b.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeQuantityExceedsRemaining))

	o, err = env.Orders.Get(env.Ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, o.Lines[0].DeliveredQty.Equal(types.MustQuantity("6")))
	assert.False(t, o.Lines[0].DeliveredQty.GreaterThan(o.Lines[0].Quantity))
	assert.True(t, env.StockOf(t, p.ID).Equal(types.MustQuantity("44")))
}

func TestMarkDelivered_ServiceLinesMoveNoStock(t *testing.T) {
	env := apptest.New(t)
	install := env.Service(t, "INSTALL", "50", "19")
	c := env.Customer(t, "Acme")
	o := env.ConfirmedOrder(t, c, apptest.Line(install, "2"))

	note, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{OrderID: o.ID, Lines: []delivery.LineInput{ship(o.Lines[0], "2")}})
	require.NoError(t, err)
	_, err = env.Deliveries.MarkDelivered(env.Ctx, note.ID)
	require.NoError(t, err)

	moves, err := env.Stock.ListMovements(env.Ctx, stock.MovementFilter{ProductID: &install.ID})
	require.NoError(t, err)
	assert.Empty(t, moves.Items)

	o, err = env.Orders.Get(env.Ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, o.Status)
}

func TestEditDraft(t *testing.T) {
	env := apptest.New(t)
	a := env.Product(t, "A", "10", "0", "50")
	b := env.Product(t, "B", "10", "0", "50")
	c := env.Customer(t, "Acme")
	o := env.ConfirmedOrder(t, c, apptest.Line(a, "5"), apptest.Line(b, "5"))

	note, err := env.Deliveries.Create(env.Ctx, delivery.CreateInput{OrderID: o.ID, Lines: []delivery.LineInput{ship(o.Lines[0], "1")}})
	require.NoError(t, err)

	note, err = env.Deliveries.AddLines(env.Ctx, note.ID, []delivery.LineInput{ship(o.Lines[1], "2")})
	require.NoError(t, err)
	require.Len(t, note.Lines, 2)

	_, err = env.Deliveries.AddLines(env.Ctx, note.ID, []delivery.LineInput{ship(o.Lines[1], "1")})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	note, err = env.Deliveries.RemoveLine(env.Ctx, note.ID, note.Lines[0].ID)
	require.NoError(t, err)
	assert.Len(t, note.Lines, 1)

	_, err = env.Deliveries.MarkSent(env.Ctx, note.ID)
	require.NoError(t, err)
	_, err = env.Deliveries.AddLines(env.Ctx, note.ID, []delivery.LineInput{ship(o.Lines[0], "1")})
	assert.True(t, apperror.HasCode(err, apperror.CodeDeliveryNotDraft))
}
