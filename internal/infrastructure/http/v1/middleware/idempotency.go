package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/idempotency"
)

const (
	HeaderIdempotencyKey = "X-Idempotency-Key"

	ContextIdempotencyKey   = "idempotency_key"
	ContextIdempotencyStore = "idempotency_store"
)

const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// Idempotency middleware protects against duplicate requests.
// Used for POST/PUT/PATCH operations that must not be applied twice.
// A nil store disables the check.
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}

		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		userID := appctx.GetUserID(c.Request.Context())

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		// The path template plus the concrete path: the same key on another
		// invoice is a different request.
		operation := c.Request.Method + " " + c.FullPath() + " " + c.Request.URL.Path

		replay, err := store.AcquireKey(c.Request.Context(), key, userID, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			if len(replay.Body) == 0 {
				c.Status(replay.StatusCode)
			} else {
				c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			}
			c.Abort()
			return
		}

		c.Set(ContextIdempotencyKey, key)
		c.Set(ContextIdempotencyStore, store)

		c.Next()
	}
}
