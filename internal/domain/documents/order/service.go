package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/lineitem"
	"erpcore/pkg/logger"
)

// Service provides business operations for orders.
type Service struct {
	repo      Repository
	customers customer.Reader
	products  product.Reader
	numerator numerator.Generator
	txManager tx.Manager
	events    domain.EventPublisher

	defaultCurrency string
}

// Config holds the collaborators of Service.
type Config struct {
	Repo            Repository
	Customers       customer.Reader
	Products        product.Reader
	Numerator       numerator.Generator
	TxManager       tx.Manager
	Events          domain.EventPublisher
	DefaultCurrency string
}

// NewService creates a new order service.
func NewService(cfg Config) *Service {
	events := cfg.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	currency := cfg.DefaultCurrency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Service{
		repo:            cfg.Repo,
		customers:       cfg.Customers,
		products:        cfg.Products,
		numerator:       cfg.Numerator,
		txManager:       cfg.TxManager,
		events:          events,
		defaultCurrency: currency,
	}
}

// CreateInput is the payload of Create.
type CreateInput struct {
	CustomerID           id.ID
	Currency             string
	SalesPoint           string
	ExpectedDeliveryDate *time.Time
	Notes                string
	Lines                []lineitem.Input
}

// Create creates a draft order. Lines inherit unset prices and tax rates
// from their products.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if _, err := s.customers.GetByID(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	lines, err := product.BuildLines(ctx, s.products, in.Lines)
	if err != nil {
		return nil, err
	}

	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}
	o := NewOrder(in.CustomerID, currency)
	o.SalesPoint = in.SalesPoint
	o.ExpectedDeliveryDate = in.ExpectedDeliveryDate
	o.Notes = in.Notes
	o.SetLines(lines)

	if err := s.CreatePrepared(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// CreatePrepared persists an order whose lines are already priced (used by
// quote conversion, which copies lines verbatim). Totals are re-summed.
func (s *Service) CreatePrepared(ctx context.Context, o *Order) error {
	o.RecomputeTotals()
	o.CreatedBy = appctx.Actor(ctx)
	if err := o.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, seq, err := s.numerator.Next(ctx, numerator.DocOrder)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		o.AssignCode(code, seq)

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.repo.SaveLines(ctx, o.ID, o.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.publish(ctx, o, "order.created", "")
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order created", "id", o.ID, "code", o.Code, "total", o.Total.String())
	return nil
}

// UpdateInput is the payload of Update. Nil fields keep their value;
// nil Lines keeps the current lines.
type UpdateInput struct {
	Currency             *string
	SalesPoint           *string
	ExpectedDeliveryDate *time.Time
	Notes                *string
	Lines                []lineitem.Input
}

// Update replaces header fields and lines of a draft order.
func (s *Service) Update(ctx context.Context, orderID id.ID, in UpdateInput) (*Order, error) {
	var lines []lineitem.Line
	if in.Lines != nil {
		var err error
		if lines, err = product.BuildLines(ctx, s.products, in.Lines); err != nil {
			return nil, err
		}
	}

	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.loadForUpdate(ctx, orderID); err != nil {
			return err
		}
		if err := o.CanModify(); err != nil {
			return err
		}

		if in.Currency != nil {
			o.Currency = strings.TrimSpace(*in.Currency)
		}
		if in.SalesPoint != nil {
			o.SalesPoint = *in.SalesPoint
		}
		if in.ExpectedDeliveryDate != nil {
			o.ExpectedDeliveryDate = in.ExpectedDeliveryDate
		}
		if in.Notes != nil {
			o.Notes = *in.Notes
		}
		if in.Lines != nil {
			o.SetLines(lines)
		}
		if err := o.Validate(ctx); err != nil {
			return err
		}

		o.Touch()
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if in.Lines != nil {
			if err := s.repo.SaveLines(ctx, o.ID, o.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
		}
		return s.publish(ctx, o, "order.updated", "")
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Get retrieves an order with lines.
func (s *Service) Get(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Lines, err = s.repo.GetLines(ctx, orderID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return o, nil
}

// List retrieves order headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Order], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// Confirm moves a draft order with lines to CONFIRMED.
func (s *Service) Confirm(ctx context.Context, orderID id.ID) (*Order, error) {
	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.loadForUpdate(ctx, orderID); err != nil {
			return err
		}
		from := o.Status
		if err := o.Confirm(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.publish(ctx, o, "order.confirmed", from)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order confirmed", "id", o.ID, "code", o.Code, "status", o.Status)
	return o, nil
}

// Cancel cancels an order that has no active delivery notes.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) (*Order, error) {
	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.repo.GetForUpdate(ctx, orderID); err != nil {
			return err
		}
		active, err := s.repo.CountActiveDeliveries(ctx, orderID)
		if err != nil {
			return fmt.Errorf("count deliveries: %w", err)
		}
		from := o.Status
		if err := o.Cancel(active); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.publish(ctx, o, "order.cancelled", from)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order cancelled", "id", o.ID, "code", o.Code, "status", o.Status)
	return o, nil
}

// RefreshDeliveryStatus re-derives the status of an order already locked by
// the caller's transaction and persists it when it changed.
func (s *Service) RefreshDeliveryStatus(ctx context.Context, o *Order) error {
	from := o.Status
	if !o.RefreshDeliveryStatus() {
		return nil
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	logger.Info(ctx, "order status refreshed", "id", o.ID, "code", o.Code, "status", o.Status)
	return s.publish(ctx, o, "order.delivery_status_changed", from)
}

func (s *Service) loadForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Lines, err = s.repo.GetLinesForUpdate(ctx, orderID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return o, nil
}

func (s *Service) publish(ctx context.Context, o *Order, eventType string, from Status) error {
	ev := domain.Event{
		AggregateType: domain.AggregateOrder,
		AggregateID:   o.ID,
		EventType:     eventType,
		Payload:       o,
	}
	if from != "" {
		ev.FromStatus = string(from)
		ev.ToStatus = string(o.Status)
	}
	return s.events.Publish(ctx, ev)
}
