// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/id"
	"erpcore/internal/core/idempotency"
	"erpcore/internal/domain"
	"erpcore/internal/infrastructure/http/v1/middleware"
	"erpcore/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses a UUID path parameter. On failure the error is already registered.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.ParseField(param, c.Param(param))
	if err != nil {
		h.Error(c, err)
		return id.Nil(), false
	}
	return parsed, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ListFilter reads the common list query parameters.
func (h *BaseHandler) ListFilter(c *gin.Context, defaultOrder string) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Status = c.Query("status")
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", defaultOrder)

	if raw := c.Query("customerId"); raw != "" {
		customerID, err := id.ParseField("customerId", raw)
		if err != nil {
			h.Error(c, err)
			return filter, false
		}
		filter.CustomerID = &customerID
	}
	return filter, true
}

// GetUserID extracts user ID from request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// CompleteIdempotency stores the response under the request's idempotency key
// with the same HTTP semantics (status code, content type, body) for replay.
func (h *BaseHandler) CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key := c.GetString(middleware.ContextIdempotencyKey)
	if key == "" {
		return
	}
	v, ok := c.Get(middleware.ContextIdempotencyStore)
	if !ok {
		return
	}
	store, ok := v.(idempotency.Store)
	if !ok || store == nil {
		return
	}

	var body []byte
	if response != nil {
		raw, err := json.Marshal(response)
		if err != nil {
			logger.Warn(c.Request.Context(), "encode idempotent response", "key", key, "error", err)
			return
		}
		body = raw
	}
	if err := store.CompleteKey(c.Request.Context(), key, statusCode, contentType, body); err != nil {
		logger.Warn(c.Request.Context(), "store idempotent response", "key", key, "error", err)
	}
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", data)
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.CompleteIdempotency(c, http.StatusOK, "application/json", data)
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	// 204 must replay as 204 with empty body.
	h.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}

// runByID calls op with the :id path parameter and renders its result as 200.
func runByID[T any](h *BaseHandler, c *gin.Context, op func(context.Context, id.ID) (T, error)) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := op(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
