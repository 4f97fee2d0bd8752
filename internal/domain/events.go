package domain

import (
	"context"

	"erpcore/internal/core/id"
)

// Event is a domain event written to the transactional outbox.
// FromStatus/ToStatus are set for lifecycle transitions and feed the audit trail.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	FromStatus    string
	ToStatus      string
	Payload       any
}

// EventPublisher records events inside the caller's transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Aggregate types.
const (
	AggregateOrder         = "order"
	AggregateDeliveryNote  = "delivery_note"
	AggregateInvoice       = "invoice"
	AggregateQuote         = "quote"
	AggregatePurchaseOrder = "purchase_order"
	AggregateProduct       = "product"
	AggregateCustomer      = "customer"
)
