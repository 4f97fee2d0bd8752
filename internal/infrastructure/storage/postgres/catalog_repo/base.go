// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

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

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	searchCols []string
	newFn      func() T
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](
	txm *postgres.TxManager,
	tableName, entityName string,
	selectCols, searchCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		searchCols: searchCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, e T) error {
	sql, args, err := r.insertQuery(e).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, postgres.TranslateError(err))
	}
	return nil
}

func (r *BaseCatalogRepo[T]) insertQuery(e T) squirrel.InsertBuilder {
	data := postgres.StructToMap(e)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return r.Builder().Insert(r.tableName).SetMap(filtered)
}

// Update modifies an existing entity with optimistic locking and advances
// the entity's version on success.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, e T) error {
	q, entityID, version, err := r.updateQuery(e)
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
		return apperror.NewConcurrentModification(r.entityName, entityID.String())
	}

	if v, ok := any(e).(entity.Versioned); ok {
		v.SetVersion(version + 1)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) updateQuery(e T) (squirrel.UpdateBuilder, id.ID, int, error) {
	data := postgres.StructToMap(e)
	entityID, ok := data["id"].(id.ID)
	if !ok {
		return squirrel.UpdateBuilder{}, id.ID{}, 0, fmt.Errorf("%s has no id column", r.entityName)
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, id.ID{}, 0, fmt.Errorf("%s has no version column", r.entityName)
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "version", "created_at":
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
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version})
	return q, entityID, version, nil
}

func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}), entityID.String())
}

// GetForUpdate retrieves entity by ID with row lock.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE"), entityID.String())
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	e := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entityName, key)
		}
		return e, fmt.Errorf("get %s: %w", r.tableName, postgres.TranslateError(err))
	}
	return e, nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return r.ListWhere(ctx, filter, nil)
}

// ListWhere is List with an extra condition.
func (r *BaseCatalogRepo[T]) ListWhere(ctx context.Context, filter domain.ListFilter, cond squirrel.Sqlizer) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}

	q, countQ, err := r.listQueries(filter, cond)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
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

func (r *BaseCatalogRepo[T]) listQueries(filter domain.ListFilter, cond squirrel.Sqlizer) (squirrel.SelectBuilder, squirrel.SelectBuilder, error) {
	q := r.baseSelect()
	if cond != nil {
		q = q.Where(cond)
	}
	if filter.Search != "" && len(r.searchCols) > 0 {
		pattern := "%" + filter.Search + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")

	orderBy, err := parseOrderBy(r.selectCols, filter.OrderBy, "name ASC")
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

// Exists reports whether cond matches any row of table.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, table string, cond squirrel.Sqlizer) (bool, error) {
	sub := squirrel.Select("1").From(table).Where(cond).Limit(1)
	sql, args, err := r.Builder().Select().Column(squirrel.Expr("EXISTS (?)", sub)).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists in %s: %w", table, err)
	}
	return exists, nil
}

// Delete performs physical removal from the database.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, postgres.TranslateError(err))
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

// parseOrderBy turns "-code" into "code DESC" for whitelisted columns.
func parseOrderBy(columns []string, orderBy, fallback string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return fallback, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	for _, col := range columns {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").
		WithDetail("orderBy", orderBy).
		WithDetail("field", field)
}
