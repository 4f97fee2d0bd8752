// Package apptest provides fixtures for service tests over the in-memory store.
package apptest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"erpcore/internal/app"
	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/lineitem"
	"erpcore/internal/domain/registers/stock"
)

// Env is a service graph plus a context carrying a test user.
type Env struct {
	*app.Memory

	Ctx context.Context
}

// New creates a fresh environment.
func New(t *testing.T) *Env {
	t.Helper()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: "u-test",
		Email:  "tester@example.com",
		Roles:  []string{"store_manager"},
	})
	return &Env{Memory: app.NewMemory("DZD"), Ctx: ctx}
}

// Product creates a stock-tracked good priced at price with taxRate and an
// initial stock level.
func (e *Env) Product(t *testing.T, ref, price, taxRate, initial string) *product.Product {
	t.Helper()
	p := product.NewProduct("Product "+ref, ref)
	p.UnitPrice = types.MustMoney(price)
	p.TaxRate = decimal.RequireFromString(taxRate)
	require.NoError(t, e.Products.Create(e.Ctx, p))

	if qty := types.MustQuantity(initial); qty.IsPositive() {
		_, err := e.Stock.Record(e.Ctx, stock.Entry{
			ProductID: p.ID,
			Type:      stock.MovementIn,
			Quantity:  qty,
			Notes:     "opening stock",
		})
		require.NoError(t, err)
	}
	return e.ReloadProduct(t, p.ID)
}

// Service creates a non-stock service product.
func (e *Env) Service(t *testing.T, ref, price, taxRate string) *product.Product {
	t.Helper()
	p := product.NewProduct("Service "+ref, ref)
	p.Kind = product.KindService
	p.TrackStock = false
	p.UnitPrice = types.MustMoney(price)
	p.TaxRate = decimal.RequireFromString(taxRate)
	require.NoError(t, e.Products.Create(e.Ctx, p))
	return p
}

// ReloadProduct reads the product back from the store.
func (e *Env) ReloadProduct(t *testing.T, productID id.ID) *product.Product {
	t.Helper()
	p, err := e.Products.GetByID(e.Ctx, productID)
	require.NoError(t, err)
	return p
}

// Customer creates a customer.
func (e *Env) Customer(t *testing.T, name string) *customer.Customer {
	t.Helper()
	c := customer.NewCustomer(name)
	require.NoError(t, e.Customers.Create(e.Ctx, c))
	return c
}

// Line is a line input with an explicit quantity and product defaults.
func Line(p *product.Product, qty string) lineitem.Input {
	return lineitem.Input{ProductID: &p.ID, Quantity: types.MustQuantity(qty)}
}

// ConfirmedOrder creates and confirms an order for c with the given lines.
func (e *Env) ConfirmedOrder(t *testing.T, c *customer.Customer, lines ...lineitem.Input) *order.Order {
	t.Helper()
	o, err := e.Orders.Create(e.Ctx, order.CreateInput{CustomerID: c.ID, Lines: lines})
	require.NoError(t, err)
	o, err = e.Orders.Confirm(e.Ctx, o.ID)
	require.NoError(t, err)
	return o
}

// StockOf returns the current stock level of a product.
func (e *Env) StockOf(t *testing.T, productID id.ID) types.Quantity {
	t.Helper()
	return e.ReloadProduct(t, productID).StockQty
}
