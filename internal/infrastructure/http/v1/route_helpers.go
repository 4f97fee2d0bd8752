// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/core/security"
	"erpcore/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// Routes binds handlers to a group with a capability check per route.
type Routes struct {
	group  *gin.RouterGroup
	policy security.Policy
}

func (r Routes) handle(method, path string, op security.Operation, handlers ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{middleware.RequireCapability(r.policy, op)}, handlers...)
	r.group.Handle(method, path, chain...)
}

func (r Routes) GET(path string, op security.Operation, h gin.HandlerFunc) {
	r.handle("GET", path, op, h)
}

func (r Routes) POST(path string, op security.Operation, h gin.HandlerFunc) {
	r.handle("POST", path, op, h)
}

func (r Routes) PUT(path string, op security.Operation, h gin.HandlerFunc) {
	r.handle("PUT", path, op, h)
}

func (r Routes) DELETE(path string, op security.Operation, h gin.HandlerFunc) {
	r.handle("DELETE", path, op, h)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
//
// Usage:
//
//	handler := handlers.NewProductHandler(base, services.Products, taxRate)
//	RegisterCatalogRoutes(api.Group("/products"), policy, handler, security.OpProductView, security.OpProductManage)
func RegisterCatalogRoutes(group *gin.RouterGroup, policy security.Policy, handler CatalogRouteHandler, view, manage security.Operation) Routes {
	r := Routes{group: group, policy: policy}
	r.GET("", view, handler.List)
	r.POST("", manage, handler.Create)
	r.GET("/:id", view, handler.Get)
	r.PUT("/:id", manage, handler.Update)
	r.DELETE("/:id", manage, handler.Delete)
	return r
}
