// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/id"
	"erpcore/internal/domain"
	"erpcore/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides common header operations for document entities.
// Lines live in child tables handled by the concrete repositories.
type BaseDocumentRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](
	txm *postgres.TxManager,
	tableName, entityName string,
	selectCols []string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T]) hasColumn(col string) bool {
	for _, c := range r.selectCols {
		if c == col {
			return true
		}
	}
	return false
}

// Create inserts a new document header.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, doc T) error {
	data := postgres.StructToMap(doc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s", r.entityName)
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(filtered).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, postgres.TranslateError(err))
	}
	return nil
}

// Update updates a document header with optimistic locking.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, doc T) error {
	q, docID, version, err := r.updateQuery(doc)
	if err != nil {
		return err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, postgres.TranslateError(err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, docID.String())
	}

	if v, ok := any(doc).(entity.Versioned); ok {
		v.SetVersion(version + 1)
	}
	return nil
}

func (r *BaseDocumentRepo[T]) updateQuery(doc T) (squirrel.UpdateBuilder, id.ID, int, error) {
	data := postgres.StructToMap(doc)
	docID, ok := data["id"].(id.ID)
	if !ok {
		return squirrel.UpdateBuilder{}, id.ID{}, 0, fmt.Errorf("%s has no id column", r.entityName)
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, id.ID{}, 0, fmt.Errorf("%s has no version column", r.entityName)
	}

	// Code, seq and authorship are fixed at creation.
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "version", "created_at", "created_by", "code", "seq":
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"version": version})
	return q, docID, version, nil
}

func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID.String())
}

// GetByCode retrieves a document header by its generated code.
func (r *BaseDocumentRepo[T]) GetByCode(ctx context.Context, code string) (T, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"code": code}), code)
}

// GetForUpdate retrieves a document header with row lock.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": docID}).
		Suffix("FOR UPDATE")
	return r.findOne(ctx, q, docID.String())
}

func (r *BaseDocumentRepo[T]) findOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	doc := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.entityName, key)
		}
		return doc, fmt.Errorf("get %s: %w", r.tableName, postgres.TranslateError(err))
	}
	return doc, nil
}

// List retrieves document headers with standard filtering.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return r.ListWhere(ctx, filter, nil)
}

// ListWhere is List with an extra condition.
func (r *BaseDocumentRepo[T]) ListWhere(ctx context.Context, filter domain.ListFilter, cond squirrel.Sqlizer) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q, countQ, err := r.listQueries(filter, cond)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

func (r *BaseDocumentRepo[T]) listQueries(filter domain.ListFilter, cond squirrel.Sqlizer) (squirrel.SelectBuilder, squirrel.SelectBuilder, error) {
	q := r.baseSelect()
	if cond != nil {
		q = q.Where(cond)
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.CustomerID != nil && r.hasColumn("customer_id") {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"code": "%" + filter.Search + "%"})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return q, countQ, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q, countQ, nil
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" || !r.hasColumn(field) {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}
	return field + " " + direction, nil
}

// selectChildren loads the child rows of one document.
func selectChildren[C any](ctx context.Context, txm *postgres.TxManager, table, fkCol string, docID id.ID, suffix string) ([]C, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(postgres.ExtractDBColumns[C]()...).
		From(table).
		Where(squirrel.Eq{fkCol: docID}).
		Suffix(suffix)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := make([]C, 0)
	if err := pgxscan.Select(ctx, txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, postgres.TranslateError(err))
	}
	return rows, nil
}

// replaceChildren deletes the child rows of a document and copies in rows.
func replaceChildren[C any](ctx context.Context, txm *postgres.TxManager, table, fkCol string, docID id.ID, rows []C) error {
	deleteSQL := "DELETE FROM " + table + " WHERE " + fkCol + " = $1"
	if _, err := txm.GetQuerier(ctx).Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete %s: %w", table, postgres.TranslateError(err))
	}
	if _, err := postgres.CopyStructs(ctx, txm, table, rows); err != nil {
		return postgres.TranslateError(err)
	}
	return nil
}

// setQuantity updates one quantity column of a child row.
func setQuantity(ctx context.Context, txm *postgres.TxManager, table, column string, rowID id.ID, qty any, entityName string) error {
	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Update(table).
		Set(column, qty).
		Where(squirrel.Eq{"id": rowID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", column, err)
	}

	result, err := txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, postgres.TranslateError(err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(entityName, rowID.String())
	}
	return nil
}
