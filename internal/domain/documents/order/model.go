// Package order provides the sales Order document and its lifecycle.
//
// Status after confirmation is derived from delivered quantities:
//
//	DRAFT -> CONFIRMED -> PART_DELIV <-> DELIVERED
//	any non-cancelled -> CANCELLED (only without active delivery notes)
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/lineitem"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusConfirmed          Status = "CONFIRMED"
	StatusPartiallyDelivered Status = "PART_DELIV"
	StatusDelivered          Status = "DELIVERED"
	StatusCancelled          Status = "CANCELLED"
)

// DefaultCurrency is used when an order is created without a currency.
const DefaultCurrency = "DZD"

// Order represents a customer sales order.
type Order struct {
	entity.Document

	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	Status     Status `db:"status" json:"status"`
	Currency   string `db:"currency" json:"currency"`

	// SalesPoint names the channel the order came through
	SalesPoint string `db:"sales_point" json:"salesPoint,omitempty"`

	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expectedDeliveryDate,omitempty"`

	// Totals (re-summed from lines)
	lineitem.Totals

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is an ordered product with its fulfillment progress.
type Line struct {
	ID       id.ID `db:"id" json:"id"`
	OrderID  id.ID `db:"order_id" json:"orderId"`
	Position int   `db:"position" json:"position"`

	lineitem.Line

	// DeliveredQty is advanced only by delivered notes; 0 <= DeliveredQty <= Quantity.
	DeliveredQty types.Quantity `db:"delivered_qty" json:"deliveredQty"`
}

// Remaining returns the quantity still to deliver.
func (l *Line) Remaining() types.Quantity {
	return l.Quantity.Sub(l.DeliveredQty)
}

// NewOrder creates a draft order.
func NewOrder(customerID id.ID, currency string) *Order {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Order{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Status:     StatusDraft,
		Currency:   currency,
		Lines:      make([]Line, 0),
	}
}

// SetLines replaces the table part and re-sums totals.
func (o *Order) SetLines(lines []lineitem.Line) {
	o.Lines = make([]Line, 0, len(lines))
	for i, l := range lines {
		o.Lines = append(o.Lines, Line{
			ID:           id.New(),
			OrderID:      o.ID,
			Position:     i + 1,
			Line:         l,
			DeliveredQty: decimal.Zero,
		})
	}
	o.RecomputeTotals()
}

// RecomputeTotals re-sums header totals from the current lines.
func (o *Order) RecomputeTotals() {
	priced := make([]lineitem.Line, len(o.Lines))
	for i := range o.Lines {
		priced[i] = o.Lines[i].Line
	}
	o.Totals = lineitem.Sum(priced)
}

// FindLine returns the line with lineID, or nil.
func (o *Order) FindLine(lineID id.ID) *Line {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if o.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}
	for i := range o.Lines {
		if err := o.Lines[i].Validate(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// CanModify checks that header and lines may still be replaced.
func (o *Order) CanModify() error {
	if o.Status != StatusDraft {
		return apperror.NewBusinessRule(apperror.CodeOrderNotDraft, "only draft orders can be modified").
			WithDetail("status", string(o.Status))
	}
	for _, l := range o.Lines {
		if l.DeliveredQty.IsPositive() {
			return apperror.NewBusinessRule(apperror.CodeOrderHasDeliveries, "order has delivered lines")
		}
	}
	return nil
}

// Confirm moves a non-empty draft to CONFIRMED.
func (o *Order) Confirm() error {
	if o.Status != StatusDraft {
		return apperror.NewBusinessRule(apperror.CodeOrderNotDraft, "only draft orders can be confirmed").
			WithDetail("status", string(o.Status))
	}
	if len(o.Lines) == 0 {
		return apperror.NewBusinessRule(apperror.CodeEmptyOrder, "cannot confirm an order without lines")
	}
	o.Status = StatusConfirmed
	o.Touch()
	return nil
}

// Cancel cancels the order. activeDeliveries is the number of delivery notes
// that are not cancelled.
func (o *Order) Cancel(activeDeliveries int) error {
	if o.Status == StatusCancelled {
		return apperror.NewBusinessRule(apperror.CodeOrderAlreadyCancelled, "order is already cancelled")
	}
	if activeDeliveries > 0 {
		return apperror.NewBusinessRule(apperror.CodeHasActiveDeliveries, "order has delivery notes that are not cancelled").
			WithDetail("activeDeliveries", activeDeliveries)
	}
	o.Status = StatusCancelled
	o.Touch()
	return nil
}

// CanDeliver checks that delivery notes may be created against the order.
func (o *Order) CanDeliver() error {
	switch o.Status {
	case StatusConfirmed, StatusPartiallyDelivered:
		return nil
	}
	return apperror.NewBusinessRule(apperror.CodeOrderNotConfirmable, "order must be confirmed to deliver").
		WithDetail("status", string(o.Status))
}

// RefreshDeliveryStatus derives the status from delivered quantities.
// It never touches a cancelled order and leaves the status unchanged while
// nothing is delivered. Reports whether the status changed.
func (o *Order) RefreshDeliveryStatus() bool {
	if o.Status == StatusCancelled || len(o.Lines) == 0 {
		return false
	}

	ordered, delivered := decimal.Zero, decimal.Zero
	for _, l := range o.Lines {
		ordered = ordered.Add(l.Quantity)
		delivered = delivered.Add(l.DeliveredQty)
	}

	next := o.Status
	switch {
	case delivered.IsZero():
		return false
	case delivered.LessThan(ordered):
		next = StatusPartiallyDelivered
	default:
		next = StatusDelivered
	}

	if next == o.Status {
		return false
	}
	o.Status = next
	o.Touch()
	return true
}
