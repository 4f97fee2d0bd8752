package purchase

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
	"erpcore/internal/domain/registers/stock"
	"erpcore/pkg/logger"
)

var tracer = otel.Tracer("erpcore/purchase")

// Service provides purchase order operations.
type Service struct {
	repo      Repository
	products  product.Reader
	stock     *stock.Service
	numerator numerator.Generator
	txManager tx.Manager
	events    domain.EventPublisher
}

// Config holds the collaborators of Service.
type Config struct {
	Repo      Repository
	Products  product.Reader
	Stock     *stock.Service
	Numerator numerator.Generator
	TxManager tx.Manager
	Events    domain.EventPublisher
}

// NewService creates a new purchase order service.
func NewService(cfg Config) *Service {
	events := cfg.Events
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &Service{
		repo:      cfg.Repo,
		products:  cfg.Products,
		stock:     cfg.Stock,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		events:    events,
	}
}

// CreateInput is the payload of Create.
type CreateInput struct {
	SupplierName         string
	ExpectedDeliveryDate *time.Time
	Notes                string
	Items                []ItemInput
}

// Create creates a draft purchase order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PurchaseOrder, error) {
	po := NewPurchaseOrder(in.SupplierName)
	po.ExpectedDeliveryDate = in.ExpectedDeliveryDate
	po.Notes = in.Notes
	po.CreatedBy = appctx.Actor(ctx)
	po.SetItems(in.Items)
	if err := po.Validate(ctx); err != nil {
		return nil, err
	}
	for i := range po.Items {
		if err := s.checkProduct(ctx, po.Items[i].ProductID); err != nil {
			return nil, err
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		code, seq, err := s.numerator.Next(ctx, numerator.DocPurchaseOrder)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		po.AssignCode(code, seq)

		if err := s.repo.Create(ctx, po); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, po.ID, po.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return s.publish(ctx, po, "purchase_order.created", "")
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created", "id", po.ID, "code", po.Code, "total", po.TotalAmount.String())
	return po, nil
}

// MarkSent moves a draft to sent.
func (s *Service) MarkSent(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, "purchase_order.sent", (*PurchaseOrder).MarkSent)
}

// Confirm moves a draft or sent order to confirmed.
func (s *Service) Confirm(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, "purchase_order.confirmed", (*PurchaseOrder).Confirm)
}

// Cancel cancels an order that has not been received.
func (s *Service) Cancel(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, "purchase_order.cancelled", (*PurchaseOrder).Cancel)
}

// Receive receives every remaining quantity and closes the order.
// A nil deliveredAt means today.
func (s *Service) Receive(ctx context.Context, poID id.ID, deliveredAt *time.Time) (*PurchaseOrder, error) {
	ctx, span := tracer.Start(ctx, "purchase.Receive")
	defer span.End()
	span.SetAttributes(attribute.String("purchase_order.id", poID.String()))

	var po *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if po, err = s.load(ctx, poID, true); err != nil {
			return err
		}
		if err := po.CanReceive(); err != nil {
			return err
		}
		from := po.Status

		receipts := make([]Receipt, 0, len(po.Items))
		for i := range po.Items {
			if rem := po.Items[i].Remaining(); rem.IsPositive() {
				receipts = append(receipts, Receipt{ItemID: po.Items[i].ID, Quantity: rem})
			}
		}
		if err := s.applyReceipts(ctx, po, receipts); err != nil {
			return err
		}

		at := today()
		if deliveredAt != nil {
			at = deliveredAt.UTC()
		}
		po.markReceived(at)
		if err := s.repo.Update(ctx, po); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		return s.publish(ctx, po, "purchase_order.received", from)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.MarkNonIdempotent(err)
	}

	logger.Info(ctx, "purchase order received", "id", po.ID, "code", po.Code)
	return po, nil
}

// ReceivePartial receives the given quantities. The order closes once every
// item is fully received.
func (s *Service) ReceivePartial(ctx context.Context, poID id.ID, receipts []Receipt) (*PurchaseOrder, error) {
	ctx, span := tracer.Start(ctx, "purchase.ReceivePartial")
	defer span.End()
	span.SetAttributes(
		attribute.String("purchase_order.id", poID.String()),
		attribute.Int("purchase_order.receipts", len(receipts)),
	)

	var po *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if po, err = s.load(ctx, poID, true); err != nil {
			return err
		}
		if err := po.CanReceive(); err != nil {
			return err
		}
		from := po.Status

		planned, err := po.PlanReceipts(receipts)
		if err != nil {
			return err
		}
		if err := s.applyReceipts(ctx, po, planned); err != nil {
			return err
		}

		eventType := "purchase_order.partially_received"
		if po.FullyReceived() {
			po.markReceived(today())
			eventType = "purchase_order.received"
		} else {
			po.Touch()
		}
		if err := s.repo.Update(ctx, po); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		if po.Status == from {
			from = ""
		}
		return s.publish(ctx, po, eventType, from)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.MarkNonIdempotent(err)
	}

	logger.Info(ctx, "purchase order receipt recorded", "id", po.ID, "code", po.Code, "status", po.Status)
	return po, nil
}

// Get retrieves a purchase order with items.
func (s *Service) Get(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.load(ctx, poID, false)
}

// List retrieves purchase order headers.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// applyReceipts records one "in" movement per receipt and advances received_qty.
func (s *Service) applyReceipts(ctx context.Context, po *PurchaseOrder, receipts []Receipt) error {
	for _, r := range receipts {
		it := po.FindItem(r.ItemID)
		if _, err := s.stock.Move(ctx, stock.Entry{
			ProductID:  it.ProductID,
			Type:       stock.MovementIn,
			Quantity:   r.Quantity,
			SourceType: stock.SourcePurchaseOrder,
			SourceID:   &po.ID,
			Notes:      "Receipt " + po.Code,
		}); err != nil {
			return err
		}
		it.ReceivedQty = it.ReceivedQty.Add(r.Quantity)
		if err := s.repo.UpdateReceivedQty(ctx, it.ID, it.ReceivedQty); err != nil {
			return fmt.Errorf("update received quantity: %w", err)
		}
	}
	return nil
}

func (s *Service) checkProduct(ctx context.Context, productID id.ID) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("unknown product").
				WithDetail("field", "productId").
				WithDetail("value", productID.String())
		}
		return err
	}
	if !p.IsStockTracked() {
		return apperror.NewBusinessRule(apperror.CodeStockNotTracked, "product does not track stock").
			WithDetail("productId", p.ID.String())
	}
	return nil
}

func (s *Service) transition(
	ctx context.Context,
	poID id.ID,
	eventType string,
	apply func(po *PurchaseOrder) error,
) (*PurchaseOrder, error) {
	var po *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if po, err = s.load(ctx, poID, true); err != nil {
			return err
		}
		from := po.Status
		if err := apply(po); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, po); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		return s.publish(ctx, po, eventType, from)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order status changed", "id", po.ID, "code", po.Code, "status", po.Status)
	return po, nil
}

func (s *Service) load(ctx context.Context, poID id.ID, forUpdate bool) (*PurchaseOrder, error) {
	var (
		po  *PurchaseOrder
		err error
	)
	if forUpdate {
		po, err = s.repo.GetForUpdate(ctx, poID)
	} else {
		po, err = s.repo.GetByID(ctx, poID)
	}
	if err != nil {
		return nil, err
	}
	if po.Items, err = s.repo.GetItems(ctx, poID); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return po, nil
}

func (s *Service) publish(ctx context.Context, po *PurchaseOrder, eventType string, from Status) error {
	ev := domain.Event{
		AggregateType: domain.AggregatePurchaseOrder,
		AggregateID:   po.ID,
		EventType:     eventType,
		Payload:       po,
	}
	if from != "" {
		ev.FromStatus = string(from)
		ev.ToStatus = string(po.Status)
	}
	return s.events.Publish(ctx, ev)
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
