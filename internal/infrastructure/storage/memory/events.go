package memory

import (
	"context"

	"erpcore/internal/core/id"
	"erpcore/internal/domain"
)

// EventLog is an outbox kept in the store: events published by a rolled
// back transaction disappear with it.
type EventLog struct {
	store *Store
}

var _ domain.EventPublisher = (*EventLog)(nil)

// NewEventLog creates an event log backed by store.
func NewEventLog(store *Store) *EventLog {
	return &EventLog{store: store}
}

// Publish implements domain.EventPublisher.
func (l *EventLog) Publish(_ context.Context, event domain.Event) error {
	return l.store.write(func(d *dataset) error {
		d.events = append(d.events, event)
		return nil
	})
}

// Events returns the committed events in publication order.
func (l *EventLog) Events() []domain.Event {
	var out []domain.Event
	l.store.read(func(d *dataset) { out = append(out, d.events...) })
	return out
}

// Types returns the event types of aggregateID in publication order.
func (l *EventLog) Types(aggregateID id.ID) []string {
	var out []string
	for _, ev := range l.Events() {
		if ev.AggregateID == aggregateID {
			out = append(out, ev.EventType)
		}
	}
	return out
}
