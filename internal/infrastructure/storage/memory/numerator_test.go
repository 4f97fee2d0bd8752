package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/numerator"
)

func TestNumerator_Next(t *testing.T) {
	n := NewNumerator(NewStore())
	ctx := context.Background()

	code, seq, err := n.Next(ctx, numerator.DocOrder)
	require.NoError(t, err)
	assert.Equal(t, "ORD000001", code)
	assert.EqualValues(t, 1, seq)

	code, _, err = n.Next(ctx, numerator.DocInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV000001", code, "series are independent")

	require.NoError(t, n.SetCurrent(ctx, numerator.DocOrder, 41))
	code, _, err = n.Next(ctx, numerator.DocOrder)
	require.NoError(t, err)
	assert.Equal(t, "ORD000042", code)
}

func TestNumerator_ErrorsAreReturned(t *testing.T) {
	n := NewNumerator(NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, seq, err := n.Next(ctx, numerator.DocOrder)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, code)
	assert.Zero(t, seq)

	require.ErrorIs(t, n.SetCurrent(ctx, numerator.DocOrder, 5), context.Canceled)

	err = n.SetCurrent(context.Background(), numerator.DocOrder, -1)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	// the failed calls drew no number
	code, _, err = n.Next(context.Background(), numerator.DocOrder)
	require.NoError(t, err)
	assert.Equal(t, "ORD000001", code)
}
