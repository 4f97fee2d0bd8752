package handlers

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/core/apperror"
	"erpcore/internal/domain"
)

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T domain.CatalogEntity, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service      *domain.CatalogService[T]
	entityName   string
	defaultOrder string

	// Mapper functions
	mapCreateDTO func(dto CreateDTO) T
	mapUpdateDTO func(dto UpdateDTO, existing T) (T, error)
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T domain.CatalogEntity, CreateDTO any, UpdateDTO any] struct {
	Service      *domain.CatalogService[T]
	EntityName   string
	DefaultOrder string
	MapCreateDTO func(dto CreateDTO) T
	MapUpdateDTO func(dto UpdateDTO, existing T) (T, error)
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T domain.CatalogEntity, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO],
) *CatalogHandler[T, CreateDTO, UpdateDTO] {
	order := cfg.DefaultOrder
	if order == "" {
		order = "name"
	}
	return &CatalogHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		entityName:   cfg.EntityName,
		defaultOrder: order,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
	}
}

// List handles GET /{entity} - list with filtering and pagination.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	filter, ok := h.ListFilter(c, h.defaultOrder)
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

// Get handles GET /{entity}/:id - get single entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entity)
}

// Create handles POST /{entity} - create new entity.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	entity := h.mapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entity)
}

// Update handles PUT /{entity}/:id - update existing entity.
// The request carries the version it was based on; a stale version fails
// with CONCURRENT_MODIFICATION.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.mapUpdateDTO(req, existing)
	if err != nil {
		h.Error(c, err)
		return
	}
	if updated.GetID() != entityID {
		h.Error(c, apperror.NewValidation("id mismatch").WithDetail("entity", h.entityName))
		return
	}

	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /{entity}/:id. Referenced entities are refused.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
