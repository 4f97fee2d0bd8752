// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the Postgres implementation
// lives in infrastructure/storage/postgres and an in-memory one in
// infrastructure/storage/memory.
package tx

import (
	"context"
)

// Func is a unit of work executed inside a transaction.
type Func func(ctx context.Context) error

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back and nothing
	// fn wrote is persisted. Otherwise the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context, so a
	// service may call another service's transactional method.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
