package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/domain/documents/invoice"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles invoice and payment requests.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates an invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv)
}

// CreateFromOrder handles POST /invoices/from-order.
func (h *InvoiceHandler) CreateFromOrder(c *gin.Context) {
	var req dto.InvoiceFromOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.CreateFromOrder(c.Request.Context(), req.OrderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv)
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Get)
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
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

// Issue handles POST /invoices/:id/issue.
func (h *InvoiceHandler) Issue(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Issue)
}

// Cancel handles POST /invoices/:id/cancel.
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Cancel)
}

// RecordPayment handles POST /invoices/:id/payments.
// Non-idempotent: clients retry with the same X-Idempotency-Key.
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment, inv, err := h.service.RecordPayment(c.Request.Context(), invoiceID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.PaymentResponse{Payment: payment, Invoice: inv})
}

// ListPayments handles GET /invoices/:id/payments.
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": payments})
}
