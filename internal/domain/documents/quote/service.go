package quote

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
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/lineitem"
	"erpcore/pkg/logger"
)

// Service provides quote operations.
type Service struct {
	repo      Repository
	orders    *order.Service
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
	Orders          *order.Service
	Customers       customer.Reader
	Products        product.Reader
	Numerator       numerator.Generator
	TxManager       tx.Manager
	Events          domain.EventPublisher
	DefaultCurrency string
}

// NewService creates a new quote service.
func NewService(cfg Config) *Service {
	events := cfg.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	currency := cfg.DefaultCurrency
	if currency == "" {
		currency = order.DefaultCurrency
	}
	return &Service{
		repo:            cfg.Repo,
		orders:          cfg.Orders,
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
	CustomerID id.ID
	Currency   string
	SalesPoint string
	ValidUntil *time.Time
	Notes      string
	Lines      []lineitem.Input
}

// Create creates a draft quote with lines defaulted from products.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Quote, error) {
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
	q := NewQuote(in.CustomerID, currency)
	q.SalesPoint = in.SalesPoint
	q.ValidUntil = in.ValidUntil
	q.Notes = in.Notes
	q.CreatedBy = appctx.Actor(ctx)
	q.SetLines(lines)
	if err := q.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, seq, err := s.numerator.Next(ctx, numerator.DocQuote)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		q.AssignCode(code, seq)

		if err := s.repo.Create(ctx, q); err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		if err := s.repo.SaveLines(ctx, q.ID, q.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.publish(ctx, q, "quote.created", "")
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quote created", "id", q.ID, "code", q.Code, "total", q.Total.String())
	return q, nil
}

// UpdateInput is the payload of Update. Nil fields keep their value.
type UpdateInput struct {
	SalesPoint *string
	ValidUntil *time.Time
	Notes      *string
	Lines      []lineitem.Input
}

// Update edits a draft quote.
func (s *Service) Update(ctx context.Context, quoteID id.ID, in UpdateInput) (*Quote, error) {
	var lines []lineitem.Line
	if in.Lines != nil {
		var err error
		if lines, err = product.BuildLines(ctx, s.products, in.Lines); err != nil {
			return nil, err
		}
	}

	var q *Quote
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if q, err = s.load(ctx, quoteID, true); err != nil {
			return err
		}
		if err := q.CanModify(); err != nil {
			return err
		}
		if in.SalesPoint != nil {
			q.SalesPoint = *in.SalesPoint
		}
		if in.ValidUntil != nil {
			q.ValidUntil = in.ValidUntil
		}
		if in.Notes != nil {
			q.Notes = *in.Notes
		}
		if in.Lines != nil {
			q.SetLines(lines)
		}

		q.Touch()
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		if in.Lines != nil {
			if err := s.repo.SaveLines(ctx, q.ID, q.Lines); err != nil {
				return fmt.Errorf("save lines: %w", err)
			}
		}
		return s.publish(ctx, q, "quote.updated", "")
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// MarkSent moves a draft quote to SENT.
func (s *Service) MarkSent(ctx context.Context, quoteID id.ID) (*Quote, error) {
	return s.transition(ctx, quoteID, "quote.sent", func(q *Quote, now time.Time) error {
		return q.MarkSent(now)
	})
}

// Accept records acceptance of a sent quote.
func (s *Service) Accept(ctx context.Context, quoteID id.ID) (*Quote, error) {
	return s.transition(ctx, quoteID, "quote.accepted", func(q *Quote, now time.Time) error {
		return q.Accept(now)
	})
}

// Reject records refusal of a sent quote.
func (s *Service) Reject(ctx context.Context, quoteID id.ID) (*Quote, error) {
	return s.transition(ctx, quoteID, "quote.rejected", func(q *Quote, now time.Time) error {
		return q.Reject(now)
	})
}

// Expire marks a quote expired.
func (s *Service) Expire(ctx context.Context, quoteID id.ID) (*Quote, error) {
	return s.transition(ctx, quoteID, "quote.expired", func(q *Quote, _ time.Time) error {
		q.Expire()
		return nil
	})
}

// ConvertToOrder creates a draft order from a sent or accepted quote. Lines
// are copied verbatim without re-defaulting. The quote itself is left as is.
func (s *Service) ConvertToOrder(ctx context.Context, quoteID id.ID) (*order.Order, error) {
	var o *order.Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.load(ctx, quoteID, true)
		if err != nil {
			return err
		}
		if err := q.CanConvert(); err != nil {
			return err
		}

		o = order.NewOrder(q.CustomerID, q.Currency)
		o.SalesPoint = q.SalesPoint
		o.Notes = q.ConversionNotes()
		o.SetLines(q.PricedLines())

		if err := s.orders.CreatePrepared(ctx, o); err != nil {
			return err
		}
		return s.events.Publish(ctx, domain.Event{
			AggregateType: domain.AggregateQuote,
			AggregateID:   q.ID,
			EventType:     "quote.converted",
			Payload:       map[string]string{"quoteId": q.ID.String(), "orderId": o.ID.String()},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quote converted to order", "quote_id", quoteID, "order_id", o.ID, "order_code", o.Code)
	return o, nil
}

// Get retrieves a quote with lines.
func (s *Service) Get(ctx context.Context, quoteID id.ID) (*Quote, error) {
	return s.load(ctx, quoteID, false)
}

// List retrieves quote headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Quote], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) transition(
	ctx context.Context,
	quoteID id.ID,
	eventType string,
	apply func(q *Quote, now time.Time) error,
) (*Quote, error) {
	var q *Quote
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if q, err = s.load(ctx, quoteID, true); err != nil {
			return err
		}
		from := q.Status
		if err := apply(q, time.Now().UTC()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		return s.publish(ctx, q, eventType, from)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "quote status changed", "id", q.ID, "code", q.Code, "status", q.Status)
	return q, nil
}

func (s *Service) load(ctx context.Context, quoteID id.ID, forUpdate bool) (*Quote, error) {
	var (
		q   *Quote
		err error
	)
	if forUpdate {
		q, err = s.repo.GetForUpdate(ctx, quoteID)
	} else {
		q, err = s.repo.GetByID(ctx, quoteID)
	}
	if err != nil {
		return nil, err
	}
	if q.Lines, err = s.repo.GetLines(ctx, quoteID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return q, nil
}

func (s *Service) publish(ctx context.Context, q *Quote, eventType string, from Status) error {
	ev := domain.Event{
		AggregateType: domain.AggregateQuote,
		AggregateID:   q.ID,
		EventType:     eventType,
		Payload:       q,
	}
	if from != "" {
		ev.FromStatus = string(from)
		ev.ToStatus = string(q.Status)
	}
	return s.events.Publish(ctx, ev)
}
