package delivery

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/registers/stock"
	"erpcore/pkg/logger"
)

var tracer = otel.Tracer("erpcore/delivery")

// Service provides fulfillment operations for delivery notes.
type Service struct {
	repo      Repository
	orders    order.Repository
	orderSvc  *order.Service
	products  product.Reader
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	events    domain.EventPublisher
}

// Config holds the collaborators of Service.
type Config struct {
	Repo         Repository
	Orders       order.Repository
	OrderService *order.Service
	Products     product.Reader
	Stock        *stock.Service
	Numerator    numerator.Generator
	TxManager    tx.Manager
	Events       domain.EventPublisher
}

// NewService creates a new delivery service.
func NewService(cfg Config) *Service {
	events := cfg.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:      cfg.Repo,
		orders:    cfg.Orders,
		orderSvc:  cfg.OrderService,
		products:  cfg.Products,
		stock:     cfg.Stock,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		events:    events,
	}
}

// CreateInput is the payload of Create.
type CreateInput struct {
	OrderID id.ID
	Notes   string
	Lines   []LineInput
}

// Create validates every line against the order, pre-checks stock and
// creates a draft note.
func (s *Service) Create(ctx context.Context, in CreateInput) (*DeliveryNote, error) {
	d := NewDeliveryNote(in.OrderID)
	d.Notes = in.Notes
	d.CreatedBy = appctx.Actor(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.loadOrder(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if err := o.CanDeliver(); err != nil {
			return err
		}
		lines, err := BuildLines(d.ID, o, nil, in.Lines)
		if err != nil {
			return err
		}
		if err := s.precheckStock(ctx, o, lines); err != nil {
			return err
		}
		d.Lines = lines

		code, seq, err := s.numerator.Next(ctx, numerator.DocDeliveryNote)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		d.AssignCode(code, seq)

		if err := s.repo.Create(ctx, d); err != nil {
			return fmt.Errorf("create delivery note: %w", err)
		}
		if err := s.repo.SaveLines(ctx, d.ID, d.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.publish(ctx, d, "delivery_note.created", "")
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery note created", "id", d.ID, "code", d.Code, "order_id", d.OrderID)
	return d, nil
}

// AddLines appends lines to a draft note.
func (s *Service) AddLines(ctx context.Context, noteID id.ID, inputs []LineInput) (*DeliveryNote, error) {
	var d *DeliveryNote
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.loadForUpdate(ctx, noteID); err != nil {
			return err
		}
		if err := d.CanEdit(); err != nil {
			return err
		}
		o, err := s.loadOrder(ctx, d.OrderID)
		if err != nil {
			return err
		}
		if err := o.CanDeliver(); err != nil {
			return err
		}
		added, err := BuildLines(d.ID, o, d.Lines, inputs)
		if err != nil {
			return err
		}
		if err := s.precheckStock(ctx, o, added); err != nil {
			return err
		}

		d.Lines = append(d.Lines, added...)
		d.Touch()
		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update delivery note: %w", err)
		}
		return s.repo.SaveLines(ctx, d.ID, d.Lines)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// RemoveLine drops a line from a draft note.
func (s *Service) RemoveLine(ctx context.Context, noteID, lineID id.ID) (*DeliveryNote, error) {
	var d *DeliveryNote
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.loadForUpdate(ctx, noteID); err != nil {
			return err
		}
		if err := d.CanEdit(); err != nil {
			return err
		}

		kept := make([]Line, 0, len(d.Lines))
		for _, l := range d.Lines {
			if l.ID != lineID {
				kept = append(kept, l)
			}
		}
		if len(kept) == len(d.Lines) {
			return apperror.NewNotFound("delivery line", lineID.String())
		}

		d.Lines = kept
		d.Touch()
		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update delivery note: %w", err)
		}
		return s.repo.SaveLines(ctx, d.ID, d.Lines)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// MarkSent moves a draft note to SENT.
func (s *Service) MarkSent(ctx context.Context, noteID id.ID) (*DeliveryNote, error) {
	return s.transition(ctx, noteID, "delivery_note.sent", (*DeliveryNote).MarkSent)
}

// Cancel cancels a note that was not delivered.
func (s *Service) Cancel(ctx context.Context, noteID id.ID) (*DeliveryNote, error) {
	return s.transition(ctx, noteID, "delivery_note.cancelled", (*DeliveryNote).Cancel)
}

// MarkDelivered ships the note in one transaction: every order line is
// re-checked under lock, delivered quantities advance, tracked goods leave
// stock and the order status is refreshed. Any failure rolls back everything.
func (s *Service) MarkDelivered(ctx context.Context, noteID id.ID) (_ *DeliveryNote, err error) {
	ctx, span := tracer.Start(ctx, "delivery.MarkDelivered")
	span.SetAttributes(attribute.String("delivery_note.id", noteID.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var d *DeliveryNote
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.loadForUpdate(ctx, noteID); err != nil {
			return err
		}
		if err := d.CanDeliver(); err != nil {
			return err
		}

		o, err := s.loadOrderForUpdate(ctx, d.OrderID)
		if err != nil {
			return err
		}
		if o.Status == order.StatusCancelled {
			return apperror.NewBusinessRule(apperror.CodeOrderCancelled, "order is cancelled")
		}

		for _, dl := range d.Lines {
			if err := s.deliverLine(ctx, d, o, dl); err != nil {
				return err
			}
		}

		from := d.Status
		d.MarkDelivered(time.Now().UTC())
		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update delivery note: %w", err)
		}
		if err := s.publish(ctx, d, "delivery_note.delivered", from); err != nil {
			return err
		}
		return s.orderSvc.RefreshDeliveryStatus(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery note delivered", "id", d.ID, "code", d.Code, "status", d.Status)
	return d, nil
}

func (s *Service) deliverLine(ctx context.Context, d *DeliveryNote, o *order.Order, dl Line) error {
	ol := o.FindLine(dl.OrderLineID)
	if ol == nil {
		return apperror.NewBusinessRule(apperror.CodeLineNotOnOrder, "line does not belong to the order").
			WithDetail("orderLineId", dl.OrderLineID.String())
	}
	if remaining := ol.Remaining(); dl.Quantity.GreaterThan(remaining) {
		return apperror.NewBusinessRule(apperror.CodeQuantityExceedsRemaining, "quantity exceeds the remaining quantity").
			WithDetail("orderLineId", ol.ID.String()).
			WithDetail("requested", dl.Quantity.String()).
			WithDetail("remaining", remaining.String())
	}

	ol.DeliveredQty = ol.DeliveredQty.Add(dl.Quantity)
	if err := s.orders.UpdateDeliveredQty(ctx, ol.ID, ol.DeliveredQty); err != nil {
		return fmt.Errorf("update delivered quantity: %w", err)
	}

	if ol.ProductID == nil {
		return nil
	}
	p, err := s.products.GetByID(ctx, *ol.ProductID)
	if err != nil {
		return err
	}
	if !p.IsStockTracked() {
		return nil
	}
	_, err = s.stock.Move(ctx, stock.Entry{
		ProductID:  p.ID,
		Type:       stock.MovementOut,
		Quantity:   dl.Quantity,
		SourceType: stock.SourceDeliveryNote,
		SourceID:   &d.ID,
		Notes:      d.Code,
	})
	return err
}

// Get retrieves a note with lines.
func (s *Service) Get(ctx context.Context, noteID id.ID) (*DeliveryNote, error) {
	d, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if d.Lines, err = s.repo.GetLines(ctx, noteID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return d, nil
}

// List retrieves note headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*DeliveryNote], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) transition(
	ctx context.Context,
	noteID id.ID,
	eventType string,
	apply func(*DeliveryNote) error,
) (*DeliveryNote, error) {
	var d *DeliveryNote
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if d, err = s.loadForUpdate(ctx, noteID); err != nil {
			return err
		}
		from := d.Status
		if err := apply(d); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update delivery note: %w", err)
		}
		return s.publish(ctx, d, eventType, from)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery note status changed", "id", d.ID, "code", d.Code, "status", d.Status)
	return d, nil
}

// precheckStock fails early when a tracked product cannot cover the lines.
// MarkDelivered re-checks under lock.
func (s *Service) precheckStock(ctx context.Context, o *order.Order, lines []Line) error {
	for _, l := range lines {
		ol := o.FindLine(l.OrderLineID)
		if ol == nil || ol.ProductID == nil {
			continue
		}
		if err := s.stock.CheckAvailable(ctx, *ol.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) loadForUpdate(ctx context.Context, noteID id.ID) (*DeliveryNote, error) {
	d, err := s.repo.GetForUpdate(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if d.Lines, err = s.repo.GetLines(ctx, noteID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return d, nil
}

func (s *Service) loadOrder(ctx context.Context, orderID id.ID) (*order.Order, error) {
	o, err := s.orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Lines, err = s.orders.GetLines(ctx, orderID); err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	return o, nil
}

func (s *Service) loadOrderForUpdate(ctx context.Context, orderID id.ID) (*order.Order, error) {
	o, err := s.orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Lines, err = s.orders.GetLinesForUpdate(ctx, orderID); err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	return o, nil
}

func (s *Service) publish(ctx context.Context, d *DeliveryNote, eventType string, from Status) error {
	ev := domain.Event{
		AggregateType: domain.AggregateDeliveryNote,
		AggregateID:   d.ID,
		EventType:     eventType,
		Payload:       d,
	}
	if from != "" {
		ev.FromStatus = string(from)
		ev.ToStatus = string(d.Status)
	}
	return s.events.Publish(ctx, ev)
}
