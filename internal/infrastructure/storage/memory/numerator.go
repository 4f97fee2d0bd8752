package memory

import (
	"context"
	"fmt"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/numerator"
)

// Numerator keeps counters in the store, so a rolled back transaction also
// gives its number back. Like the Postgres counter it fails on a done context
// without drawing a number.
type Numerator struct {
	store *Store
}

var _ numerator.Generator = (*Numerator)(nil)

// NewNumerator creates a generator backed by store.
func NewNumerator(store *Store) *Numerator {
	return &Numerator{store: store}
}

// Next implements numerator.Generator.
func (n *Numerator) Next(ctx context.Context, docType numerator.DocumentType) (string, int64, error) {
	var seq int64
	err := n.store.write(func(d *dataset) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("next %s number: %w", docType, err)
		}
		d.counters[docType]++
		seq = d.counters[docType]
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return numerator.Format(numerator.ConfigFor(docType), seq), seq, nil
}

// SetCurrent implements numerator.Generator.
func (n *Numerator) SetCurrent(ctx context.Context, docType numerator.DocumentType, value int64) error {
	if value < 0 {
		return apperror.NewValidation("sequence value cannot be negative").
			WithDetail("value", value)
	}
	return n.store.write(func(d *dataset) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("set %s sequence: %w", docType, err)
		}
		d.counters[docType] = value
		return nil
	})
}
