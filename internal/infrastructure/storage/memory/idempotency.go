package memory

import (
	"context"
	"sync"
	"time"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/idempotency"
)

type idempotencyEntry struct {
	userID      string
	operation   string
	requestHash string
	done        bool
	replay      idempotency.Replay
	expiresAt   time.Time
}

// IdempotencyStore keeps idempotency keys in process memory.
type IdempotencyStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	keys map[string]*idempotencyEntry
	now  func() time.Time
}

var _ idempotency.Store = (*IdempotencyStore)(nil)

// NewIdempotencyStore creates an empty store.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{ttl: ttl, keys: make(map[string]*idempotencyEntry), now: time.Now}
}

// AcquireKey implements idempotency.Store.
func (s *IdempotencyStore) AcquireKey(_ context.Context, key, userID, operation, requestHash string) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.keys[key]
	if !ok || now.After(e.expiresAt) {
		s.keys[key] = &idempotencyEntry{
			userID:      userID,
			operation:   operation,
			requestHash: requestHash,
			expiresAt:   now.Add(s.ttl),
		}
		return nil, nil
	}

	if e.userID != userID || e.operation != operation || e.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).WithDetail("operation", operation)
	}
	if !e.done {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	replay := e.replay
	return &replay, nil
}

// CompleteKey implements idempotency.Store.
func (s *IdempotencyStore) CompleteKey(_ context.Context, key string, statusCode int, contentType string, body []byte) error {
	s.finish(key, statusCode, contentType, body)
	return nil
}

// FailKey implements idempotency.Store.
func (s *IdempotencyStore) FailKey(_ context.Context, key string, statusCode int, contentType string, body []byte) error {
	s.finish(key, statusCode, contentType, body)
	return nil
}

// ReleaseKey implements idempotency.Store.
func (s *IdempotencyStore) ReleaseKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.keys[key]; ok && !e.done {
		delete(s.keys, key)
	}
	return nil
}

func (s *IdempotencyStore) finish(key string, statusCode int, contentType string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok {
		return
	}
	e.done = true
	e.replay = idempotency.Replay{
		StatusCode:  statusCode,
		ContentType: contentType,
		Body:        append([]byte(nil), body...),
	}
}
