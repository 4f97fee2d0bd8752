package catalog_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/domain"
	"erpcore/internal/domain/catalogs/product"
)

func TestParseOrderBy(t *testing.T) {
	cols := []string{"id", "name", "reference"}

	got, err := parseOrderBy(cols, "", "name ASC")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	got, err = parseOrderBy(cols, "-reference", "name ASC")
	require.NoError(t, err)
	assert.Equal(t, "reference DESC", got)

	got, err = parseOrderBy(cols, " +name ", "name ASC")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	_, err = parseOrderBy(cols, "stock_qty", "name ASC")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestListQueries_SearchAndLowStock(t *testing.T) {
	repo := NewProductRepo(nil)

	q, countQ, err := repo.listQueries(domain.ListFilter{Search: "oak", Limit: 10}, lowStockCondition())
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM products WHERE (track_stock = $1 AND stock_qty < min_stock) AND (name ILIKE $2 OR reference ILIKE $3)")
	assert.Contains(t, sql, "ORDER BY name ASC LIMIT 10")
	assert.Equal(t, []any{true, "%oak%", "%oak%"}, args)

	countSQL, countArgs, err := countQ.ToSql()
	require.NoError(t, err)
	assert.Contains(t, countSQL, "SELECT COUNT(*) FROM (SELECT")
	assert.Len(t, countArgs, 3)
}

func TestUpdateQuery_OptimisticVersion(t *testing.T) {
	repo := NewProductRepo(nil)
	p := product.NewProduct("Chair", "CHAIR")
	p.Version = 4

	q, entityID, version, err := repo.updateQuery(p)
	require.NoError(t, err)
	assert.Equal(t, p.ID, entityID)
	assert.Equal(t, 4, version)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "UPDATE products SET")
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE id = $")
	assert.NotContains(t, sql, "created_at =")
	assert.Equal(t, 4, args[len(args)-1])
}

func TestExistsQueryNumbering(t *testing.T) {
	sub := squirrel.Select("1").From("order_lines").Where(squirrel.Eq{"product_id": "x"}).Limit(1)
	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select().Column(squirrel.Expr("EXISTS (?)", sub)).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXISTS (SELECT 1 FROM order_lines WHERE product_id = $1 LIMIT 1)", sql)
	assert.Equal(t, []any{"x"}, args)
}
