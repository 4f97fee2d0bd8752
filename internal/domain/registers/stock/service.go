package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/id"
	"erpcore/internal/core/tx"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/pkg/logger"
)

// Service records stock movements and keeps Product.stock_qty in step.
type Service struct {
	repo      Repository
	products  product.Repository
	txManager tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, products product.Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		txManager: txManager,
	}
}

// Record is the public entry point for a manual stock movement.
// Failures are marked non-idempotent: a blind retry may double-apply.
func (s *Service) Record(ctx context.Context, e Entry) (*Movement, error) {
	if e.SourceType == "" {
		e.SourceType = SourceManual
	}
	var m *Movement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.Move(ctx, e)
		return err
	})
	if err != nil {
		return nil, apperror.MarkNonIdempotent(err)
	}
	return m, nil
}

// Move applies e inside the caller's transaction: it locks the product row,
// computes the new level, inserts the movement and updates the stock.
func (s *Service) Move(ctx context.Context, e Entry) (*Movement, error) {
	if !e.Type.IsValid() {
		return nil, apperror.NewValidation("invalid movement type").
			WithDetail("field", "movementType").
			WithDetail("value", string(e.Type))
	}
	if !e.Quantity.IsPositive() {
		return nil, apperror.NewBusinessRule(apperror.CodeNonPositiveQuantity, "movement quantity must be positive").
			WithDetail("quantity", e.Quantity.String())
	}

	p, err := s.products.GetForUpdate(ctx, e.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsStockTracked() {
		return nil, apperror.NewBusinessRule(apperror.CodeStockNotTracked, "product does not track stock").
			WithDetail("productId", p.ID.String())
	}

	qty := types.RoundQuantity(e.Quantity)
	next, err := Apply(p.StockQty, e.Type, qty, p.ID)
	if err != nil {
		return nil, err
	}

	m := &Movement{
		ID:            id.New(),
		ProductID:     p.ID,
		MovementType:  e.Type,
		Quantity:      qty,
		PreviousStock: p.StockQty,
		NewStock:      next,
		SourceType:    e.SourceType,
		SourceID:      e.SourceID,
		Notes:         e.Notes,
		CreatedBy:     appctx.Actor(ctx),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.CreateMovement(ctx, m); err != nil {
		return nil, fmt.Errorf("create movement: %w", err)
	}
	if err := s.products.SetStock(ctx, p.ID, next); err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	if next.LessThan(p.MinStock) {
		logger.Warn(ctx, "product below minimum stock",
			"product_id", p.ID, "reference", p.Reference, "stock", next.String(), "min", p.MinStock.String())
	}
	return m, nil
}

// CheckAvailable fails with INSUFFICIENT_STOCK when a tracked product holds
// less than qty. It takes no lock; Move re-checks under the row lock.
func (s *Service) CheckAvailable(ctx context.Context, productID id.ID, qty types.Quantity) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !p.IsStockTracked() {
		return nil
	}
	if p.StockQty.LessThan(qty) {
		return apperror.NewInsufficientStock(p.ID.String(), qty.String(), p.StockQty.String())
	}
	return nil
}

// ListMovements returns the movement history, newest first.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) (domain.ListResult[Movement], error) {
	filter.Normalize()
	return s.repo.ListMovements(ctx, filter)
}

// Available returns the current stock of a product.
func (s *Service) Available(ctx context.Context, productID id.ID) (types.Quantity, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.StockQty, nil
}
