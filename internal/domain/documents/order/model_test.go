package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/lineitem"
)

func confirmedOrder(qtys ...string) *Order {
	o := NewOrder(id.New(), "")
	lines := make([]lineitem.Line, 0, len(qtys))
	for _, q := range qtys {
		l := lineitem.Line{Description: "item", Quantity: types.MustQuantity(q), UnitPrice: types.MustMoney("1")}
		l.Recompute()
		lines = append(lines, l)
	}
	o.SetLines(lines)
	o.Status = StatusConfirmed
	return o
}

func TestRefreshDeliveryStatus(t *testing.T) {
	tests := []struct {
		name      string
		delivered []string
		want      Status
		changed   bool
	}{
		{"nothing delivered", []string{"0", "0"}, StatusConfirmed, false},
		{"partial", []string{"4", "0"}, StatusPartiallyDelivered, true},
		{"one line complete", []string{"10", "0"}, StatusPartiallyDelivered, true},
		{"all complete", []string{"10", "5"}, StatusDelivered, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := confirmedOrder("10", "5")
			for i, d := range tt.delivered {
				o.Lines[i].DeliveredQty = types.MustQuantity(d)
			}
			assert.Equal(t, tt.changed, o.RefreshDeliveryStatus())
			assert.Equal(t, tt.want, o.Status)

			// a second refresh is a no-op
			assert.False(t, o.RefreshDeliveryStatus())
			assert.Equal(t, tt.want, o.Status)
		})
	}
}

func TestRefreshDeliveryStatus_CancelledIsSticky(t *testing.T) {
	o := confirmedOrder("10")
	o.Lines[0].DeliveredQty = types.MustQuantity("10")
	o.Status = StatusCancelled

	assert.False(t, o.RefreshDeliveryStatus())
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestCanModify_RejectsDeliveredLines(t *testing.T) {
	o := confirmedOrder("10")
	o.Status = StatusDraft
	assert.NoError(t, o.CanModify())

	o.Lines[0].DeliveredQty = types.MustQuantity("1")
	assert.Error(t, o.CanModify())
}
