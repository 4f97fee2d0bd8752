// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpcore/internal/domain"
	"erpcore/internal/domain/registers/stock"
	"erpcore/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "stock_movements"

// StockRepo implements stock.Repository. Movements are append-only.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
	columns []string
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock movement repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns: postgres.ExtractDBColumns[stock.Movement](),
	}
}

// CreateMovement appends one movement to the ledger.
func (r *StockRepo) CreateMovement(ctx context.Context, m *stock.Movement) error {
	sql, args, err := r.builder.
		Insert(stockMovementsTable).
		Columns(r.columns...).
		Values(postgres.StructValues(m, r.columns)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert movement: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", postgres.TranslateError(err))
	}
	return nil
}

// ListMovements returns the movement history, newest first.
func (r *StockRepo) ListMovements(ctx context.Context, filter stock.MovementFilter) (domain.ListResult[stock.Movement], error) {
	result := domain.ListResult[stock.Movement]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.movementQuery(filter)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count movements: %w", err)
	}

	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	result.Items = make([]stock.Movement, 0)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select movements: %w", err)
	}
	return result, nil
}

func (r *StockRepo) movementQuery(filter stock.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.Select(r.columns...).From(stockMovementsTable)

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.MovementType != nil {
		q = q.Where(squirrel.Eq{"movement_type": string(*filter.MovementType)})
	}
	if filter.SourceID != nil {
		q = q.Where(squirrel.Eq{"source_id": *filter.SourceID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	return q
}
