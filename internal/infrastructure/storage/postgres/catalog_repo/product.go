package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// Tables whose product_id column references products.
var productReferences = []string{
	"stock_movements",
	"order_lines",
	"quote_lines",
	"invoice_lines",
	"purchase_order_items",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			productsTable, domain.AggregateProduct,
			postgres.ExtractDBColumns[product.Product](),
			[]string{"name", "reference"},
			func() *product.Product { return &product.Product{} },
		),
	}
}

// GetByReference retrieves a product by its unique reference (case-insensitive).
func (r *ProductRepo) GetByReference(ctx context.Context, reference string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Expr("lower(reference) = lower(?)", reference)).
		Limit(1)
	return r.FindOne(ctx, q, reference)
}

// SetStock overwrites the stock level. The caller holds the row lock.
func (r *ProductRepo) SetStock(ctx context.Context, productID id.ID, qty types.Quantity) error {
	sql, args, err := r.Builder().
		Update(productsTable).
		Set("stock_qty", qty).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set stock: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set stock: %w", postgres.TranslateError(err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(domain.AggregateProduct, productID.String())
	}
	return nil
}

// ListLowStock lists tracked products below their minimum stock.
func (r *ProductRepo) ListLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return r.ListWhere(ctx, filter, lowStockCondition())
}

func lowStockCondition() squirrel.Sqlizer {
	return squirrel.And{
		squirrel.Eq{"track_stock": true},
		squirrel.Expr("stock_qty < min_stock"),
	}
}

// IsReferenced reports whether a movement or document line names the product.
func (r *ProductRepo) IsReferenced(ctx context.Context, productID id.ID) (bool, error) {
	for _, table := range productReferences {
		found, err := r.Exists(ctx, table, squirrel.Eq{"product_id": productID})
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}
