package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/id"
	"erpcore/internal/core/numerator"
	"erpcore/internal/core/tx"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/lineitem"
	"erpcore/pkg/logger"
)

var tracer = otel.Tracer("erpcore/invoice")

// Service provides invoice and payment operations.
type Service struct {
	repo      Repository
	orders    order.Repository
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
	Orders          order.Repository
	Customers       customer.Reader
	Products        product.Reader
	Numerator       numerator.Generator
	TxManager       tx.Manager
	Events          domain.EventPublisher
	DefaultCurrency string
}

// NewService creates a new invoice service.
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
	IssueDate  *time.Time
	DueDate    *time.Time
	Notes      string
	Lines      []lineitem.Input
}

// Create creates a standalone draft invoice.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
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
	inv := NewInvoice(in.CustomerID, currency)
	if in.IssueDate != nil {
		inv.IssueDate = *in.IssueDate
	}
	inv.DueDate = in.DueDate
	inv.Notes = in.Notes
	inv.SetLines(lines)

	if err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.insert(ctx, inv)
	}); err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created", "id", inv.ID, "code", inv.Code, "total", inv.Total.String())
	return inv, nil
}

// CreateFromOrder copies customer, currency, notes and lines of an order
// into a new draft invoice linked to it.
func (s *Service) CreateFromOrder(ctx context.Context, orderID id.ID) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == order.StatusCancelled {
			return apperror.NewBusinessRule(apperror.CodeOrderCancelled, "cannot invoice a cancelled order")
		}
		orderLines, err := s.orders.GetLines(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get order lines: %w", err)
		}

		inv = NewInvoice(o.CustomerID, o.Currency)
		inv.OrderID = &o.ID
		inv.Notes = o.Notes

		lines := make([]lineitem.Line, len(orderLines))
		for i := range orderLines {
			lines[i] = orderLines[i].Line
		}
		inv.SetLines(lines)

		return s.insert(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created from order", "id", inv.ID, "code", inv.Code, "order_id", orderID)
	return inv, nil
}

func (s *Service) insert(ctx context.Context, inv *Invoice) error {
	inv.Recompute(nil)
	inv.CreatedBy = appctx.Actor(ctx)
	if err := inv.Validate(ctx); err != nil {
		return err
	}

	code, seq, err := s.numerator.Next(ctx, numerator.DocInvoice)
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	inv.AssignCode(code, seq)

	if err := s.repo.Create(ctx, inv); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	if err := s.repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
		return fmt.Errorf("save lines: %w", err)
	}
	return s.publish(ctx, inv, "invoice.created", "")
}

// Issue moves a draft invoice to ISSUED.
func (s *Service) Issue(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.transition(ctx, invoiceID, "invoice.issued", func(ctx context.Context, inv *Invoice) error {
		if err := inv.Issue(); err != nil {
			return err
		}
		payments, err := s.repo.GetPayments(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("get payments: %w", err)
		}
		inv.Recompute(payments)
		return nil
	})
}

// Cancel cancels an unpaid invoice.
func (s *Service) Cancel(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.transition(ctx, invoiceID, "invoice.cancelled", func(_ context.Context, inv *Invoice) error {
		return inv.Cancel()
	})
}

// PaymentInput is the payload of RecordPayment.
type PaymentInput struct {
	Amount     types.Money
	Method     PaymentMethod
	Reference  string
	ReceivedAt *time.Time
	Notes      string
}

// RecordPayment registers a payment under the invoice lock, checking it
// against the balance recomputed from the persisted payments. Failures are
// marked non-idempotent.
func (s *Service) RecordPayment(ctx context.Context, invoiceID id.ID, in PaymentInput) (_ *Payment, _ *Invoice, err error) {
	ctx, span := tracer.Start(ctx, "invoice.RecordPayment")
	span.SetAttributes(
		attribute.String("invoice.id", invoiceID.String()),
		attribute.String("payment.amount", in.Amount.String()),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if in.Method == "" {
		in.Method = MethodCash
	}
	if !in.Method.IsValid() {
		return nil, nil, apperror.MarkNonIdempotent(apperror.NewValidation("invalid payment method").
			WithDetail("field", "method").
			WithDetail("value", string(in.Method)))
	}
	amount := types.RoundMoney(in.Amount)

	var (
		p   *Payment
		inv *Invoice
	)
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if inv, err = s.load(ctx, invoiceID, true); err != nil {
			return err
		}
		payments, err := s.repo.GetPayments(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("get payments: %w", err)
		}
		inv.Recompute(payments)

		if err := inv.CheckPayment(amount); err != nil {
			return err
		}

		now := time.Now().UTC()
		p = &Payment{
			ID:         id.New(),
			InvoiceID:  inv.ID,
			Amount:     amount,
			Method:     in.Method,
			Reference:  in.Reference,
			ReceivedAt: now,
			Notes:      in.Notes,
			CreatedBy:  appctx.Actor(ctx),
			CreatedAt:  now,
		}
		if in.ReceivedAt != nil {
			p.ReceivedAt = *in.ReceivedAt
		}
		if err := s.repo.CreatePayment(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		from := inv.Status
		inv.Recompute(append(payments, *p))
		inv.Touch()
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: domain.AggregateInvoice,
			AggregateID:   inv.ID,
			EventType:     "invoice.payment_recorded",
			Payload:       p,
		}); err != nil {
			return err
		}
		if from != inv.Status {
			return s.publish(ctx, inv, "invoice.status_changed", from)
		}
		return nil
	})
	if err != nil {
		return nil, nil, apperror.MarkNonIdempotent(err)
	}

	logger.Info(ctx, "payment recorded",
		"invoice_id", inv.ID, "code", inv.Code, "amount", amount.String(), "status", inv.Status)
	return p, inv, nil
}

// Get retrieves an invoice with lines.
func (s *Service) Get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.load(ctx, invoiceID, false)
}

// ListPayments returns the payments of an invoice.
func (s *Service) ListPayments(ctx context.Context, invoiceID id.ID) ([]Payment, error) {
	if _, err := s.repo.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.GetPayments(ctx, invoiceID)
}

// List retrieves invoice headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) transition(
	ctx context.Context,
	invoiceID id.ID,
	eventType string,
	apply func(ctx context.Context, inv *Invoice) error,
) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if inv, err = s.load(ctx, invoiceID, true); err != nil {
			return err
		}
		from := inv.Status
		if err := apply(ctx, inv); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		return s.publish(ctx, inv, eventType, from)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice status changed", "id", inv.ID, "code", inv.Code, "status", inv.Status)
	return inv, nil
}

func (s *Service) load(ctx context.Context, invoiceID id.ID, forUpdate bool) (*Invoice, error) {
	var (
		inv *Invoice
		err error
	)
	if forUpdate {
		inv, err = s.repo.GetForUpdate(ctx, invoiceID)
	} else {
		inv, err = s.repo.GetByID(ctx, invoiceID)
	}
	if err != nil {
		return nil, err
	}
	if inv.Lines, err = s.repo.GetLines(ctx, invoiceID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return inv, nil
}

func (s *Service) publish(ctx context.Context, inv *Invoice, eventType string, from Status) error {
	ev := domain.Event{
		AggregateType: domain.AggregateInvoice,
		AggregateID:   inv.ID,
		EventType:     eventType,
		Payload:       inv,
	}
	if from != "" {
		ev.FromStatus = string(from)
		ev.ToStatus = string(inv.Status)
	}
	return s.events.Publish(ctx, ev)
}
