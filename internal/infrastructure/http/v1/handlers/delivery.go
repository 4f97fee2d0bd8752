package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/core/id"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// DeliveryHandler handles delivery note requests.
type DeliveryHandler struct {
	*BaseHandler
	service *delivery.Service
}

// NewDeliveryHandler creates a delivery note handler.
func NewDeliveryHandler(base *BaseHandler, service *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{BaseHandler: base, service: service}
}

// Create handles POST /delivery-notes.
func (h *DeliveryHandler) Create(c *gin.Context) {
	var req dto.CreateDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, d)
}

// AddLines handles POST /delivery-notes/:id/lines.
func (h *DeliveryHandler) AddLines(c *gin.Context) {
	noteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddDeliveryLinesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.AddLines(c.Request.Context(), noteID, dto.ToDeliveryLines(req.Lines))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// RemoveLine handles DELETE /delivery-notes/:id/lines/:lineId.
func (h *DeliveryHandler) RemoveLine(c *gin.Context) {
	noteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.ParseID(c, "lineId")
	if !ok {
		return
	}

	d, err := h.service.RemoveLine(c.Request.Context(), noteID, lineID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Get handles GET /delivery-notes/:id.
func (h *DeliveryHandler) Get(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Get)
}

// List handles GET /delivery-notes. orderId narrows to one order.
func (h *DeliveryHandler) List(c *gin.Context) {
	base, ok := h.ListFilter(c, "-created_at")
	if !ok {
		return
	}
	filter := delivery.ListFilter{ListFilter: base}
	if raw := c.Query("orderId"); raw != "" {
		orderID, err := id.ParseField("orderId", raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.OrderID = &orderID
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// MarkSent handles POST /delivery-notes/:id/send.
func (h *DeliveryHandler) MarkSent(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.MarkSent)
}

// MarkDelivered handles POST /delivery-notes/:id/deliver. Stock leaves the
// warehouse and the order's delivered quantities move in one transaction.
func (h *DeliveryHandler) MarkDelivered(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.MarkDelivered)
}

// Cancel handles POST /delivery-notes/:id/cancel.
func (h *DeliveryHandler) Cancel(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Cancel)
}
