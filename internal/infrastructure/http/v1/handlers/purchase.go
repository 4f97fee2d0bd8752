package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/domain/documents/purchase"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles purchase order requests.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a purchase order handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Create handles POST /purchase-orders.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, po)
}

// Get handles GET /purchase-orders/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Get)
}

// List handles GET /purchase-orders.
func (h *PurchaseHandler) List(c *gin.Context) {
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

func (h *PurchaseHandler) MarkSent(c *gin.Context) { runByID(h.BaseHandler, c, h.service.MarkSent) }
func (h *PurchaseHandler) Confirm(c *gin.Context)  { runByID(h.BaseHandler, c, h.service.Confirm) }
func (h *PurchaseHandler) Cancel(c *gin.Context)   { runByID(h.BaseHandler, c, h.service.Cancel) }

// Receive handles POST /purchase-orders/:id/receive: every outstanding
// quantity enters stock.
func (h *PurchaseHandler) Receive(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceivePurchaseOrderRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.Receive(c.Request.Context(), poID, req.DeliveredAt.Ptr())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// ReceivePartial handles POST /purchase-orders/:id/receive-partial.
func (h *PurchaseHandler) ReceivePartial(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceivePartialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.ReceivePartial(c.Request.Context(), poID, req.ToReceipts())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}
