package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
)

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Hour)

	replay, err := s.AcquireKey(ctx, "k1", "u1", "POST /payments", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = s.AcquireKey(ctx, "k1", "u1", "POST /payments", "h1")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency), "in-flight key must conflict")

	require.NoError(t, s.CompleteKey(ctx, "k1", 201, "application/json", []byte(`{"id":"x"}`)))

	replay, err = s.AcquireKey(ctx, "k1", "u1", "POST /payments", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.JSONEq(t, `{"id":"x"}`, string(replay.Body))

	_, err = s.AcquireKey(ctx, "k1", "u1", "POST /payments", "h2")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
}

func TestIdempotencyStore_ReleaseAndExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)
	require.NoError(t, s.ReleaseKey(ctx, "k"))

	replay, err := s.AcquireKey(ctx, "k", "u", "op", "h")
	require.NoError(t, err)
	assert.Nil(t, replay)
	require.NoError(t, s.FailKey(ctx, "k", 422, "application/json", []byte(`{}`)))

	now = now.Add(2 * time.Minute)
	replay, err = s.AcquireKey(ctx, "k", "u", "op", "other-hash")
	require.NoError(t, err)
	assert.Nil(t, replay, "expired key is acquired again")
}
