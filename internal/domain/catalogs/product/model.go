// Package product provides the Product catalog: the single stock-holding
// item sold on orders and received on purchase orders.
package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/lineitem"
)

// Kind defines the type of item.
type Kind string

const (
	KindGood    Kind = "GOOD"
	KindService Kind = "SERVICE"
)

// DefaultUnit is used when no unit of measure is given.
const DefaultUnit = "unit"

// Product is a sellable good or service. Goods may track stock.
type Product struct {
	entity.Catalog

	// Reference is the unique SKU
	Reference string `db:"reference" json:"reference"`

	Kind       Kind   `db:"kind" json:"kind"`
	TrackStock bool   `db:"track_stock" json:"trackStock"`
	Unit       string `db:"unit" json:"unit"`

	// Default line values
	UnitPrice types.Money     `db:"unit_price" json:"unitPrice"`
	TaxRate   decimal.Decimal `db:"tax_rate" json:"taxRate"`

	// StockQty changes only together with a stock movement.
	StockQty types.Quantity `db:"stock_qty" json:"stockQty"`
	MinStock types.Quantity `db:"min_stock" json:"minStock"`
}

// NewProduct creates an active GOOD with zero stock.
func NewProduct(name, reference string) *Product {
	return &Product{
		Catalog:    entity.NewCatalog(name),
		Reference:  strings.TrimSpace(reference),
		Kind:       KindGood,
		TrackStock: true,
		Unit:       DefaultUnit,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(p.Reference) == "" {
		return apperror.NewValidation("reference is required").
			WithDetail("field", "reference")
	}

	switch p.Kind {
	case KindGood:
	case KindService:
		if p.TrackStock {
			return apperror.NewValidation("services cannot track stock").
				WithDetail("field", "trackStock")
		}
	default:
		return apperror.NewValidation("invalid product kind").
			WithDetail("field", "kind").
			WithDetail("value", string(p.Kind))
	}

	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	if p.TaxRate.IsNegative() {
		return apperror.NewValidation("tax rate cannot be negative").
			WithDetail("field", "taxRate")
	}
	if p.MinStock.IsNegative() {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minStock")
	}

	return nil
}

// IsStockTracked reports whether stock movements apply to the product.
func (p *Product) IsStockTracked() bool {
	return p.Kind == KindGood && p.TrackStock
}

// IsLowStock reports whether stock fell below the configured minimum.
func (p *Product) IsLowStock() bool {
	return p.IsStockTracked() && p.StockQty.LessThan(p.MinStock)
}

// LineDefaults returns the values a document line inherits from the product.
func (p *Product) LineDefaults() *lineitem.Defaults {
	return &lineitem.Defaults{
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		TaxRate:   p.TaxRate,
	}
}
