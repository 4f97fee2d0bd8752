package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"erpcore/internal/app"
	"erpcore/internal/core/idempotency"
	"erpcore/internal/core/security"
	"erpcore/internal/infrastructure/http/v1/handlers"
	"erpcore/internal/infrastructure/http/v1/middleware"
	"erpcore/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Services is the domain service graph (Postgres or in-memory)
	Services *app.Services

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Policy decides capabilities; defaults to security.DefaultRolePolicy
	Policy security.Policy

	// Idempotency backs the non-idempotent routes (payments, stock movements).
	// Nil disables replay protection.
	Idempotency idempotency.Store

	// Database is pinged by the readiness probe; nil for the in-memory store
	Database handlers.Pinger

	// DefaultTaxRate applies to new products without an explicit rate
	DefaultTaxRate decimal.Decimal

	// Debug enables gin debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Policy == nil {
		cfg.Policy = security.DefaultRolePolicy()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Database)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	api.Use(middleware.UserContext(cfg.Logger))

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(api, base, cfg)
	registerSalesRoutes(api, base, cfg)
	registerInvoiceRoutes(api, base, cfg)
	registerStockRoutes(api, base, cfg)

	return router
}

func registerCatalogRoutes(api *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	products := handlers.NewProductHandler(base, cfg.Services.Products, cfg.DefaultTaxRate)
	// Static segment before the :id routes.
	Routes{group: api.Group("/products"), policy: cfg.Policy}.
		GET("/low-stock", security.OpProductView, products.LowStock)
	RegisterCatalogRoutes(api.Group("/products"), cfg.Policy, products, security.OpProductView, security.OpProductManage)

	customers := handlers.NewCustomerHandler(base, cfg.Services.Customers)
	r := RegisterCatalogRoutes(api.Group("/customers"), cfg.Policy, customers, security.OpCustomerView, security.OpCustomerManage)
	r.GET("/:id/contacts", security.OpCustomerView, customers.ListContacts)
	r.POST("/:id/contacts", security.OpCustomerManage, customers.AddContact)
	r.POST("/:id/merge", security.OpCustomerMerge, customers.Merge)
}

func registerSalesRoutes(api *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	orders := handlers.NewOrderHandler(base, cfg.Services.Orders)
	o := Routes{group: api.Group("/orders"), policy: cfg.Policy}
	o.GET("", security.OpOrderView, orders.List)
	o.POST("", security.OpOrderCreate, orders.Create)
	o.GET("/:id", security.OpOrderView, orders.Get)
	o.PUT("/:id", security.OpOrderUpdate, orders.Update)
	o.POST("/:id/confirm", security.OpOrderConfirm, orders.Confirm)
	o.POST("/:id/cancel", security.OpOrderCancel, orders.Cancel)

	deliveries := handlers.NewDeliveryHandler(base, cfg.Services.Deliveries)
	d := Routes{group: api.Group("/delivery-notes"), policy: cfg.Policy}
	d.GET("", security.OpDeliveryView, deliveries.List)
	d.POST("", security.OpDeliveryCreate, deliveries.Create)
	d.GET("/:id", security.OpDeliveryView, deliveries.Get)
	d.POST("/:id/lines", security.OpDeliveryEditLines, deliveries.AddLines)
	d.DELETE("/:id/lines/:lineId", security.OpDeliveryEditLines, deliveries.RemoveLine)
	d.POST("/:id/send", security.OpDeliveryMarkSent, deliveries.MarkSent)
	d.POST("/:id/deliver", security.OpDeliveryMarkDelivered, deliveries.MarkDelivered)
	d.POST("/:id/cancel", security.OpDeliveryCancel, deliveries.Cancel)

	quotes := handlers.NewQuoteHandler(base, cfg.Services.Quotes)
	q := Routes{group: api.Group("/quotes"), policy: cfg.Policy}
	q.GET("", security.OpQuoteView, quotes.List)
	q.POST("", security.OpQuoteCreate, quotes.Create)
	q.GET("/:id", security.OpQuoteView, quotes.Get)
	q.PUT("/:id", security.OpQuoteCreate, quotes.Update)
	q.POST("/:id/send", security.OpQuoteTransition, quotes.MarkSent)
	q.POST("/:id/accept", security.OpQuoteTransition, quotes.Accept)
	q.POST("/:id/reject", security.OpQuoteTransition, quotes.Reject)
	q.POST("/:id/expire", security.OpQuoteTransition, quotes.Expire)
	q.POST("/:id/convert", security.OpQuoteConvert, quotes.Convert)
}

func registerInvoiceRoutes(api *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	invoices := handlers.NewInvoiceHandler(base, cfg.Services.Invoices)
	i := Routes{group: api.Group("/invoices"), policy: cfg.Policy}
	i.GET("", security.OpInvoiceView, invoices.List)
	i.POST("", security.OpInvoiceCreate, invoices.Create)
	i.POST("/from-order", security.OpInvoiceCreateFromOrder, invoices.CreateFromOrder)
	i.GET("/:id", security.OpInvoiceView, invoices.Get)
	i.POST("/:id/issue", security.OpInvoiceIssue, invoices.Issue)
	i.POST("/:id/cancel", security.OpInvoiceCancel, invoices.Cancel)
	i.GET("/:id/payments", security.OpInvoiceView, invoices.ListPayments)
	i.handle("POST", "/:id/payments", security.OpPaymentRecord,
		middleware.Idempotency(cfg.Idempotency), invoices.RecordPayment)
}

func registerStockRoutes(api *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	stockHandler := handlers.NewStockHandler(base, cfg.Services.Stock)
	s := Routes{group: api.Group("/stock"), policy: cfg.Policy}
	s.GET("/movements", security.OpStockView, stockHandler.ListMovements)
	s.handle("POST", "/movements", security.OpStockMovementRecord,
		middleware.Idempotency(cfg.Idempotency), stockHandler.RecordMovement)
	s.GET("/products/:id/available", security.OpStockView, stockHandler.Available)

	purchases := handlers.NewPurchaseHandler(base, cfg.Services.Purchases)
	p := Routes{group: api.Group("/purchase-orders"), policy: cfg.Policy}
	p.GET("", security.OpPurchaseOrderView, purchases.List)
	p.POST("", security.OpPurchaseOrderCreate, purchases.Create)
	p.GET("/:id", security.OpPurchaseOrderView, purchases.Get)
	p.POST("/:id/send", security.OpPurchaseOrderTransition, purchases.MarkSent)
	p.POST("/:id/confirm", security.OpPurchaseOrderTransition, purchases.Confirm)
	p.POST("/:id/cancel", security.OpPurchaseOrderTransition, purchases.Cancel)
	p.POST("/:id/receive", security.OpPurchaseOrderReceive, purchases.Receive)
	p.POST("/:id/receive-partial", security.OpPurchaseOrderReceive, purchases.ReceivePartial)
}
