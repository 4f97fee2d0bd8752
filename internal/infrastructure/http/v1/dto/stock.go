package dto

import (
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/registers/stock"
)

// StockMovementRequest records a manual stock movement.
// For adjustments Quantity is the new absolute stock level.
type StockMovementRequest struct {
	ProductID    id.ID              `json:"productId" binding:"required"`
	MovementType stock.MovementType `json:"movementType" binding:"required"`
	Quantity     types.Quantity     `json:"quantity"`
	Notes        string             `json:"notes"`
}

// ToEntry maps the request to a manual stock entry.
func (r StockMovementRequest) ToEntry() stock.Entry {
	return stock.Entry{
		ProductID:  r.ProductID,
		Type:       r.MovementType,
		Quantity:   r.Quantity,
		SourceType: stock.SourceManual,
		Notes:      r.Notes,
	}
}

// AvailabilityResponse reports the stock level of a product.
type AvailabilityResponse struct {
	ProductID id.ID          `json:"productId"`
	Available types.Quantity `json:"available"`
}
