// Package delivery provides DeliveryNotes: partial or full fulfillment of a
// confirmed order.
package delivery

import (
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/entity"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/documents/order"
)

// Status is the delivery note lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// DeliveryNote (bon de livraison) ships quantities of order lines.
type DeliveryNote struct {
	entity.Document

	OrderID id.ID  `db:"order_id" json:"orderId"`
	Status  Status `db:"status" json:"status"`

	// DeliveredAt is set on the transition to DELIVERED
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line ships a quantity of one order line. An order line appears at most
// once per note.
type Line struct {
	ID             id.ID          `db:"id" json:"id"`
	DeliveryNoteID id.ID          `db:"delivery_note_id" json:"deliveryNoteId"`
	OrderLineID    id.ID          `db:"order_line_id" json:"orderLineId"`
	Quantity       types.Quantity `db:"quantity" json:"quantity"`
}

// LineInput is a requested shipment of an order line.
type LineInput struct {
	OrderLineID id.ID
	Quantity    types.Quantity
}

// NewDeliveryNote creates a draft note for orderID.
func NewDeliveryNote(orderID id.ID) *DeliveryNote {
	return &DeliveryNote{
		Document: entity.NewDocument(),
		OrderID:  orderID,
		Status:   StatusDraft,
		Lines:    make([]Line, 0),
	}
}

// CanEdit checks that lines may be added or removed.
func (d *DeliveryNote) CanEdit() error {
	if d.Status != StatusDraft {
		return apperror.NewBusinessRule(apperror.CodeDeliveryNotDraft, "only draft delivery notes can be edited").
			WithDetail("status", string(d.Status))
	}
	return nil
}

// MarkSent moves a draft note to SENT.
func (d *DeliveryNote) MarkSent() error {
	if err := d.CanEdit(); err != nil {
		return err
	}
	d.Status = StatusSent
	d.Touch()
	return nil
}

// CanDeliver checks the note-level preconditions of MarkDelivered.
func (d *DeliveryNote) CanDeliver() error {
	switch d.Status {
	case StatusDelivered:
		return apperror.NewBusinessRule(apperror.CodeAlreadyDelivered, "delivery note is already delivered")
	case StatusCancelled:
		return apperror.NewBusinessRule(apperror.CodeDeliveryCancelled, "delivery note is cancelled")
	}
	if len(d.Lines) == 0 {
		return apperror.NewBusinessRule(apperror.CodeNoLines, "delivery note has no lines")
	}
	return nil
}

// MarkDelivered sets DELIVERED and the delivery timestamp.
func (d *DeliveryNote) MarkDelivered(at time.Time) {
	d.Status = StatusDelivered
	d.DeliveredAt = &at
	d.Touch()
}

// Cancel cancels a note that has not been delivered.
func (d *DeliveryNote) Cancel() error {
	switch d.Status {
	case StatusDelivered:
		return apperror.NewBusinessRule(apperror.CodeAlreadyDelivered, "delivered notes cannot be cancelled")
	case StatusCancelled:
		return apperror.NewBusinessRule(apperror.CodeDeliveryCancelled, "delivery note is already cancelled")
	}
	d.Status = StatusCancelled
	d.Touch()
	return nil
}

// BuildLines validates inputs against the order and the lines already on the
// note, and returns the new lines. Nothing is persisted.
func BuildLines(noteID id.ID, o *order.Order, existing []Line, inputs []LineInput) ([]Line, error) {
	if len(inputs) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	seen := make(map[id.ID]struct{}, len(existing)+len(inputs))
	for _, l := range existing {
		seen[l.OrderLineID] = struct{}{}
	}

	lines := make([]Line, 0, len(inputs))
	for i, in := range inputs {
		ol := o.FindLine(in.OrderLineID)
		if ol == nil {
			return nil, apperror.NewBusinessRule(apperror.CodeLineNotOnOrder, "line does not belong to the order").
				WithDetail("orderLineId", in.OrderLineID.String()).
				WithDetail("line", i)
		}
		if _, dup := seen[in.OrderLineID]; dup {
			return nil, apperror.NewValidation("order line appears twice on the delivery note").
				WithDetail("orderLineId", in.OrderLineID.String()).
				WithDetail("line", i)
		}
		seen[in.OrderLineID] = struct{}{}

		qty := types.RoundQuantity(in.Quantity)
		if !qty.IsPositive() {
			return nil, apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity").
				WithDetail("line", i)
		}
		if remaining := ol.Remaining(); qty.GreaterThan(remaining) {
			return nil, apperror.NewBusinessRule(apperror.CodeQuantityExceedsRemaining, "quantity exceeds the remaining quantity").
				WithDetail("orderLineId", ol.ID.String()).
				WithDetail("requested", qty.String()).
				WithDetail("remaining", remaining.String())
		}

		lines = append(lines, Line{
			ID:             id.New(),
			DeliveryNoteID: noteID,
			OrderLineID:    ol.ID,
			Quantity:       qty,
		})
	}
	return lines, nil
}
