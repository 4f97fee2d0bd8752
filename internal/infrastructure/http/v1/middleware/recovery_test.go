package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/infrastructure/storage/memory"
)

func TestRecovery_ReleasesIdempotencyKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.NewIdempotencyStore(time.Hour)

	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.POST("/boom", Idempotency(store), func(c *gin.Context) {
		panic("stock ledger exploded")
	})

	req := httptest.NewRequest(http.MethodPost, "/boom", nil)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "exploded")

	// The key was released, so the same request acquires it again.
	sum := sha256.Sum256(nil)
	replay, err := store.AcquireKey(context.Background(), "k-1", "", "POST /boom /boom", hex.EncodeToString(sum[:]))
	require.NoError(t, err)
	assert.Nil(t, replay)
}
