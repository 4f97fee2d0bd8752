package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_UnwrapThroughFmt(t *testing.T) {
	base := NewBusinessRule(CodeEmptyOrder, "order has no lines")
	wrapped := fmt.Errorf("confirm order: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeEmptyOrder, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
	assert.True(t, HasCode(wrapped, CodeEmptyOrder))
	assert.False(t, HasCode(errors.New("plain"), CodeEmptyOrder))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRetryable(CodeLockTimeout, "lock wait timed out", http.StatusServiceUnavailable)))
	assert.True(t, IsRetryable(NewConcurrentModification("orders", "x")))
	assert.False(t, IsRetryable(NewValidation("bad input")))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestMarkNonIdempotent(t *testing.T) {
	assert.Nil(t, MarkNonIdempotent(nil))

	err := MarkNonIdempotent(NewBusinessRule(CodeExceedsBalance, "payment exceeds balance"))
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.NonIdempotent)
	assert.Equal(t, CodeExceedsBalance, appErr.Code)

	err = MarkNonIdempotent(errors.New("connection reset"))
	appErr, ok = AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInternal, appErr.Code)
	assert.True(t, appErr.NonIdempotent)
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("invalid line").WithDetail("line", 2).WithDetail("field", "quantity")
	assert.Equal(t, 2, err.Details["line"])
	assert.Equal(t, "quantity", err.Details["field"])
	assert.Equal(t, "VALIDATION_ERROR: invalid line", err.Error())
}
