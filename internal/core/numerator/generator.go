// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
)

// Generator hands out document codes.
//
// Next must be called inside the transaction that inserts the document:
// the counter increment commits or rolls back together with the document,
// and concurrent callers are serialized on the counter row.
type Generator interface {
	// Next returns the formatted code (e.g. ORD000042) and its sequence number.
	Next(ctx context.Context, docType DocumentType) (code string, seq int64, err error)

	// SetCurrent sets the last used value of a series (data migration only).
	SetCurrent(ctx context.Context, docType DocumentType, value int64) error
}
