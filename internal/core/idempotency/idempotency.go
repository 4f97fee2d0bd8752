// Package idempotency defines the key store that lets clients safely retry
// non-idempotent requests (payments, manual stock movements).
package idempotency

import "context"

// Replay is a cached HTTP response.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store tracks idempotency keys.
//
// AcquireKey returns (nil, nil) when the caller owns the key, a Replay when
// the operation already finished, and an error when the key is in flight or
// was used for a different request.
type Store interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key string) error
}
