package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/core/id"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles customer catalog requests.
type CustomerHandler struct {
	*CatalogHandler[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]
	service *customer.Service
}

// NewCustomerHandler creates a customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return &CustomerHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]{
			Service:      service.CatalogService,
			EntityName:   "customer",
			DefaultOrder: "code",
			MapCreateDTO: dto.CreateCustomerRequest.ToCustomer,
			MapUpdateDTO: dto.ApplyCustomer,
		}),
		service: service,
	}
}

// AddContact handles POST /customers/:id/contacts.
func (h *CustomerHandler) AddContact(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ContactRequest
	if !h.BindJSON(c, &req) {
		return
	}

	contact := customer.NewContact(customerID, req.Name)
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Role = req.Role
	contact.IsPrimary = req.IsPrimary

	if err := h.service.AddContact(c.Request.Context(), contact); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, contact)
}

// ListContacts handles GET /customers/:id/contacts.
func (h *CustomerHandler) ListContacts(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	contacts, err := h.service.ListContacts(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": contacts})
}

// Merge handles POST /customers/:id/merge. The path customer is the source
// and is deleted; the target survives.
func (h *CustomerHandler) Merge(c *gin.Context) {
	sourceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.MergeCustomersRequest
	if !h.BindJSON(c, &req) {
		return
	}
	targetID, err := id.ParseField("targetId", req.TargetID)
	if err != nil {
		h.Error(c, err)
		return
	}

	merged, err := h.service.Merge(c.Request.Context(), customer.MergeRequest{
		SourceID: sourceID,
		TargetID: targetID,
		Fields:   customer.FieldPolicy(req.Fields),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, merged)
}
