package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/domain/registers/stock"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the stock movement register.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock register handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RecordMovement handles POST /stock/movements.
// Non-idempotent: clients retry with the same X-Idempotency-Key.
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req dto.StockMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.Record(c.Request.Context(), req.ToEntry())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// ListMovements handles GET /stock/movements.
func (h *StockHandler) ListMovements(c *gin.Context) {
	base, ok := h.ListFilter(c, "-created_at")
	if !ok {
		return
	}
	filter := stock.MovementFilter{ListFilter: base}

	if filter.ProductID, ok = h.optionalID(c, "productId"); !ok {
		return
	}
	if filter.SourceID, ok = h.optionalID(c, "sourceId"); !ok {
		return
	}
	if raw := c.Query("movementType"); raw != "" {
		t := stock.MovementType(raw)
		if !t.IsValid() {
			h.Error(c, apperror.NewValidation("invalid movement type").
				WithDetail("field", "movementType").
				WithDetail("value", raw))
			return
		}
		filter.MovementType = &t
	}
	if filter.FromDate, ok = h.optionalTime(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.optionalTime(c, "to"); !ok {
		return
	}

	result, err := h.service.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Available handles GET /stock/products/:id/available.
func (h *StockHandler) Available(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	qty, err := h.service.Available(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.AvailabilityResponse{ProductID: productID, Available: qty})
}

func (h *StockHandler) optionalID(c *gin.Context, key string) (*id.ID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	parsed, err := id.ParseField(key, raw)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return &parsed, true
}

func (h *StockHandler) optionalTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse(time.DateOnly, raw); err != nil {
			h.Error(c, apperror.NewValidation("invalid date").
				WithDetail("field", key).
				WithDetail("value", raw))
			return nil, false
		}
	}
	return &t, true
}
