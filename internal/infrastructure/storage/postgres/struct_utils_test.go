package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/documents/order"
	"erpcore/internal/domain/lineitem"
)

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[order.Order]()

	for _, want := range []string{
		"id", "version", "created_at", "updated_at",
		"code", "seq", "notes", "created_by",
		"customer_id", "status", "currency",
		"subtotal", "tax_total", "total",
	} {
		assert.Contains(t, cols, want)
	}
	assert.NotContains(t, cols, "lines")
	assert.Equal(t, "id", cols[0])
}

func TestExtractDBColumns_LineKeepsOwnFields(t *testing.T) {
	cols := ExtractDBColumns[order.Line]()
	assert.Equal(t, []string{
		"id", "order_id", "position",
		"product_id", "description", "quantity", "unit_price", "tax_rate",
		"subtotal", "tax_amount", "total",
		"delivered_qty",
	}, cols)
}

func TestStructToMap(t *testing.T) {
	productID := id.New()
	line := order.Line{
		ID:       id.New(),
		Position: 2,
		Line: lineitem.Line{
			ProductID: &productID,
			Quantity:  types.MustQuantity("3"),
			Total:     types.MustMoney("357"),
		},
		DeliveredQty: types.MustQuantity("1"),
	}

	m := StructToMap(&line)
	require.NotNil(t, m)
	assert.Equal(t, line.ID, m["id"])
	assert.Equal(t, 2, m["position"])
	assert.Equal(t, &productID, m["product_id"])
	assert.True(t, types.MustMoney("357").Equal(m["total"].(types.Money)))

	values := StructValues(line, []string{"position", "missing"})
	assert.Equal(t, []any{2, nil}, values)

	var nilLine *order.Line
	assert.Nil(t, StructToMap(nilLine))
}
