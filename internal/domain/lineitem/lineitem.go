// Package lineitem computes line and document totals shared by orders,
// invoices and quotes.
//
// A line total is derived in a fixed order, each step rounded half-up to
// cents:
//
//	subtotal = round(quantity * unit_price)
//	tax      = round(subtotal * tax_rate / 100)
//	total    = round(subtotal + tax)
//
// Header totals are re-summed from the persisted lines, never adjusted
// incrementally.
package lineitem

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// Line is the priced part of an order, invoice or quote line.
type Line struct {
	ProductID   *id.ID          `db:"product_id" json:"productId,omitempty"`
	Description string          `db:"description" json:"description"`
	Quantity    types.Quantity  `db:"quantity" json:"quantity"`
	UnitPrice   types.Money     `db:"unit_price" json:"unitPrice"`
	TaxRate     decimal.Decimal `db:"tax_rate" json:"taxRate"`

	Subtotal  types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount types.Money `db:"tax_amount" json:"taxAmount"`
	Total     types.Money `db:"total" json:"total"`
}

// Totals are the derived amounts of a line or a document header.
type Totals struct {
	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	TaxTotal types.Money `db:"tax_total" json:"taxTotal"`
	Total    types.Money `db:"total" json:"total"`
}

// Compute derives the totals of a single line.
func Compute(qty types.Quantity, unitPrice types.Money, taxRate decimal.Decimal) Totals {
	subtotal := types.RoundMoney(qty.Mul(unitPrice))
	tax := types.RoundMoney(subtotal.Mul(taxRate).Div(hundred))
	return Totals{
		Subtotal: subtotal,
		TaxTotal: tax,
		Total:    types.RoundMoney(subtotal.Add(tax)),
	}
}

// Recompute refreshes the derived amounts of l from its inputs.
func (l *Line) Recompute() {
	t := Compute(l.Quantity, l.UnitPrice, l.TaxRate)
	l.Subtotal = t.Subtotal
	l.TaxAmount = t.TaxTotal
	l.Total = t.Total
}

// Validate checks the line inputs. index is reported in error details.
func (l *Line) Validate(ctx context.Context, index int) error {
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("line", index)
	}
	if l.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "unitPrice").
			WithDetail("line", index)
	}
	if l.TaxRate.IsNegative() {
		return apperror.NewValidation("tax rate must not be negative").
			WithDetail("field", "taxRate").
			WithDetail("line", index)
	}
	if l.ProductID == nil && strings.TrimSpace(l.Description) == "" {
		return apperror.NewValidation("line needs a product or a description").
			WithDetail("field", "description").
			WithDetail("line", index)
	}
	return nil
}

// Sum re-sums the persisted line amounts.
func Sum(lines []Line) Totals {
	var t Totals
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Subtotal)
		t.TaxTotal = t.TaxTotal.Add(l.TaxAmount)
		t.Total = t.Total.Add(l.Total)
	}
	t.Subtotal = types.RoundMoney(t.Subtotal)
	t.TaxTotal = types.RoundMoney(t.TaxTotal)
	t.Total = types.RoundMoney(t.Total)
	return t
}

// Input is a line as submitted by a caller. Nil price or rate means
// "take it from the product".
type Input struct {
	ProductID   *id.ID
	Description string
	Quantity    types.Quantity
	UnitPrice   *types.Money
	TaxRate     *decimal.Decimal
}

// Defaults are the product values a line falls back to.
type Defaults struct {
	Name      string
	UnitPrice types.Money
	TaxRate   decimal.Decimal
}

// ApplyDefaults builds a Line from in, filling an unset unit price, tax rate
// or description from d, then computes its totals. d may be nil for free-text
// lines.
func ApplyDefaults(in Input, d *Defaults) Line {
	l := Line{
		ProductID:   in.ProductID,
		Description: strings.TrimSpace(in.Description),
		Quantity:    types.RoundQuantity(in.Quantity),
	}
	if in.UnitPrice != nil {
		l.UnitPrice = types.RoundMoney(*in.UnitPrice)
	} else if d != nil {
		l.UnitPrice = d.UnitPrice
	}
	if in.TaxRate != nil {
		l.TaxRate = *in.TaxRate
	} else if d != nil {
		l.TaxRate = d.TaxRate
	}
	if l.Description == "" && d != nil {
		l.Description = d.Name
	}
	l.Recompute()
	return l
}
