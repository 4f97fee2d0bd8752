// Package stock provides the stock ledger: immutable movements that are the
// only way a product's stock level changes.
package stock

import (
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

// MovementType defines movement direction.
type MovementType string

const (
	// MovementIn increases stock
	MovementIn MovementType = "in"
	// MovementOut decreases stock
	MovementOut MovementType = "out"
	// MovementAdjustment sets stock to an absolute value (inventory count)
	MovementAdjustment MovementType = "adjustment"
)

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// SourceType names the document that caused a movement.
type SourceType string

const (
	SourceDeliveryNote  SourceType = "delivery_note"
	SourcePurchaseOrder SourceType = "purchase_order"
	SourceManual        SourceType = "manual"
)

// Movement is an immutable stock ledger row.
type Movement struct {
	ID            id.ID          `db:"id" json:"id"`
	ProductID     id.ID          `db:"product_id" json:"productId"`
	MovementType  MovementType   `db:"movement_type" json:"movementType"`
	Quantity      types.Quantity `db:"quantity" json:"quantity"`
	PreviousStock types.Quantity `db:"previous_stock" json:"previousStock"`
	NewStock      types.Quantity `db:"new_stock" json:"newStock"`

	SourceType SourceType `db:"source_type" json:"sourceType"`
	SourceID   *id.ID     `db:"source_id" json:"sourceId,omitempty"`

	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Entry is a request to move stock.
type Entry struct {
	ProductID  id.ID
	Type       MovementType
	Quantity   types.Quantity
	SourceType SourceType
	SourceID   *id.ID
	Notes      string
}

// Apply computes the stock level after a movement of qty from prev.
func Apply(prev types.Quantity, t MovementType, qty types.Quantity, productID id.ID) (types.Quantity, error) {
	if !qty.IsPositive() {
		return prev, apperror.NewBusinessRule(apperror.CodeNonPositiveQuantity, "movement quantity must be positive").
			WithDetail("quantity", qty.String())
	}

	switch t {
	case MovementIn:
		return types.RoundQuantity(prev.Add(qty)), nil
	case MovementOut:
		next := types.RoundQuantity(prev.Sub(qty))
		if next.IsNegative() {
			return prev, apperror.NewInsufficientStock(productID.String(), qty.String(), prev.String())
		}
		return next, nil
	case MovementAdjustment:
		return types.RoundQuantity(qty), nil
	default:
		return prev, apperror.NewValidation("invalid movement type").
			WithDetail("field", "movementType").
			WithDetail("value", string(t))
	}
}
