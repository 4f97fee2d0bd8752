package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog requests.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler creates a product handler. New products without an
// explicit tax rate get defaultTaxRate.
func NewProductHandler(base *BaseHandler, service *product.Service, defaultTaxRate decimal.Decimal) *ProductHandler {
	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
			Service:      service.CatalogService,
			EntityName:   "product",
			DefaultOrder: "name",
			MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
				return req.ToProduct(defaultTaxRate)
			},
			MapUpdateDTO: dto.ApplyProduct,
		}),
		service: service,
	}
}

// LowStock handles GET /products/low-stock: tracked goods below their minimum.
func (h *ProductHandler) LowStock(c *gin.Context) {
	filter, ok := h.ListFilter(c, "name")
	if !ok {
		return
	}

	result, err := h.service.LowStock(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
