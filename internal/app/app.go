// Package app wires repositories into domain services.
package app

import (
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/documents/delivery"
	"erpcore/internal/domain/documents/invoice"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/documents/purchase"
	"erpcore/internal/domain/documents/quote"
	"erpcore/internal/domain/registers/stock"
	"erpcore/internal/infrastructure/storage/memory"
)

// Repositories is one storage backend.
type Repositories struct {
	Products   product.Repository
	Customers  customer.Repository
	Stock      stock.Repository
	Orders     order.Repository
	Deliveries delivery.Repository
	Invoices   invoice.Repository
	Quotes     quote.Repository
	Purchases  purchase.Repository
}

// Config holds everything the services share.
type Config struct {
	Repos           Repositories
	TxManager       tx.Manager
	Numerator       numerator.Generator
	Events          domain.EventPublisher
	DefaultCurrency string
}

// Services exposes every domain service.
type Services struct {
	Products   *product.Service
	Customers  *customer.Service
	Stock      *stock.Service
	Orders     *order.Service
	Deliveries *delivery.Service
	Invoices   *invoice.Service
	Quotes     *quote.Service
	Purchases  *purchase.Service

	TxManager tx.Manager
}

// NewServices builds the service graph.
func NewServices(cfg Config) *Services {
	events := cfg.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	r := cfg.Repos

	products := product.NewService(r.Products, cfg.TxManager, events)
	customers := customer.NewService(r.Customers, cfg.TxManager, cfg.Numerator, events)
	stockSvc := stock.NewService(r.Stock, r.Products, cfg.TxManager)

	orders := order.NewService(order.Config{
		Repo:            r.Orders,
		Customers:       r.Customers,
		Products:        r.Products,
		Numerator:       cfg.Numerator,
		TxManager:       cfg.TxManager,
		Events:          events,
		DefaultCurrency: cfg.DefaultCurrency,
	})

	return &Services{
		Products:  products,
		Customers: customers,
		Stock:     stockSvc,
		Orders:    orders,
		Deliveries: delivery.NewService(delivery.Config{
			Repo:         r.Deliveries,
			Orders:       r.Orders,
			OrderService: orders,
			Products:     r.Products,
			Stock:        stockSvc,
			Numerator:    cfg.Numerator,
			TxManager:    cfg.TxManager,
			Events:       events,
		}),
		Invoices: invoice.NewService(invoice.Config{
			Repo:            r.Invoices,
			Orders:          r.Orders,
			Customers:       r.Customers,
			Products:        r.Products,
			Numerator:       cfg.Numerator,
			TxManager:       cfg.TxManager,
			Events:          events,
			DefaultCurrency: cfg.DefaultCurrency,
		}),
		Quotes: quote.NewService(quote.Config{
			Repo:            r.Quotes,
			Orders:          orders,
			Customers:       r.Customers,
			Products:        r.Products,
			Numerator:       cfg.Numerator,
			TxManager:       cfg.TxManager,
			Events:          events,
			DefaultCurrency: cfg.DefaultCurrency,
		}),
		Purchases: purchase.NewService(purchase.Config{
			Repo:      r.Purchases,
			Products:  r.Products,
			Stock:     stockSvc,
			Numerator: cfg.Numerator,
			TxManager: cfg.TxManager,
			Events:    events,
		}),
		TxManager: cfg.TxManager,
	}
}

// Memory is a service graph over an in-memory store.
type Memory struct {
	*Services

	Store  *memory.Store
	Events *memory.EventLog
}

// NewMemory builds services over a fresh in-memory store.
func NewMemory(defaultCurrency string) *Memory {
	store := memory.NewStore()
	events := memory.NewEventLog(store)
	svc := NewServices(Config{
		Repos: Repositories{
			Products:   memory.NewProductRepo(store),
			Customers:  memory.NewCustomerRepo(store),
			Stock:      memory.NewStockRepo(store),
			Orders:     memory.NewOrderRepo(store),
			Deliveries: memory.NewDeliveryRepo(store),
			Invoices:   memory.NewInvoiceRepo(store),
			Quotes:     memory.NewQuoteRepo(store),
			Purchases:  memory.NewPurchaseRepo(store),
		},
		TxManager:       memory.NewTxManager(store),
		Numerator:       memory.NewNumerator(store),
		Events:          events,
		DefaultCurrency: defaultCurrency,
	})
	return &Memory{Services: svc, Store: store, Events: events}
}
