package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/domain/documents/quote"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// QuoteHandler handles quote requests.
type QuoteHandler struct {
	*BaseHandler
	service *quote.Service
}

// NewQuoteHandler creates a quote handler.
func NewQuoteHandler(base *BaseHandler, service *quote.Service) *QuoteHandler {
	return &QuoteHandler{BaseHandler: base, service: service}
}

// Create handles POST /quotes.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	q, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, q)
}

// Update handles PUT /quotes/:id.
func (h *QuoteHandler) Update(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	q, err := h.service.Update(c.Request.Context(), quoteID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, q)
}

// Get handles GET /quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	runByID(h.BaseHandler, c, h.service.Get)
}

// List handles GET /quotes.
func (h *QuoteHandler) List(c *gin.Context) {
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

func (h *QuoteHandler) MarkSent(c *gin.Context) { runByID(h.BaseHandler, c, h.service.MarkSent) }
func (h *QuoteHandler) Accept(c *gin.Context)   { runByID(h.BaseHandler, c, h.service.Accept) }
func (h *QuoteHandler) Reject(c *gin.Context)   { runByID(h.BaseHandler, c, h.service.Reject) }
func (h *QuoteHandler) Expire(c *gin.Context)   { runByID(h.BaseHandler, c, h.service.Expire) }

// Convert handles POST /quotes/:id/convert and returns the new draft order.
func (h *QuoteHandler) Convert(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	o, err := h.service.ConvertToOrder(c.Request.Context(), quoteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o)
}
