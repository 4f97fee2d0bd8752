package product

import (
	"context"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain"
)

// Service provides business logic for the Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, events domain.EventPublisher) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		Events:     events,
		EntityName: domain.AggregateProduct,
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate checks reference uniqueness. New products start with zero
// stock; opening balances are recorded as stock movements.
func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	if p.Unit == "" {
		p.Unit = DefaultUnit
	}
	p.StockQty = decimal.Zero
	return s.checkReference(ctx, p.Reference, p.ID)
}

// prepareForUpdate keeps the stored stock level; only movements change it.
func (s *Service) prepareForUpdate(ctx context.Context, p *Product) error {
	current, err := s.repo.GetForUpdate(ctx, p.ID)
	if err != nil {
		return err
	}
	p.StockQty = current.StockQty
	if current.IsStockTracked() && !p.IsStockTracked() && !current.StockQty.IsZero() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "cannot stop tracking a product that holds stock").
			WithDetail("stockQty", current.StockQty.String())
	}
	return s.checkReference(ctx, p.Reference, p.ID)
}

func (s *Service) checkReference(ctx context.Context, reference string, excludeID id.ID) error {
	existing, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != excludeID {
		return apperror.NewDuplicate(domain.AggregateProduct, "reference", reference)
	}
	return nil
}

// LowStock lists tracked products whose stock is below the minimum.
func (s *Service) LowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	filter.Normalize()
	return s.repo.ListLowStock(ctx, filter)
}
