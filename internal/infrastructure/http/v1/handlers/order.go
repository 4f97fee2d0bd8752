package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/domain/documents/order"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles sales order requests.
type OrderHandler struct {
	*BaseHandler
	service *order.Service
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o)
}

// Update handles PUT /orders/:id. Only drafts can be edited.
func (h *OrderHandler) Update(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.Update(c.Request.Context(), orderID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Get)
}

// List handles GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, "-created_at")
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Confirm handles POST /orders/:id/confirm.
func (h *OrderHandler) Confirm(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Confirm)
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Cancel)
}
