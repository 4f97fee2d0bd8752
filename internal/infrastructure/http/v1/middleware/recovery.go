package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"erpcore/internal/core/apperror"
	"erpcore/pkg/logger"
)

// Recovery turns panics into a 500 response. The panic unwinds past
// ErrorHandler, so the response is written here. A pending idempotency key is
// released: the failed transaction rolled back and the client may retry.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered",
				"error", rec,
				"stack", string(debug.Stack()),
			)

			if key, store := idempotencyFrom(c); store != nil {
				if err := store.ReleaseKey(ctx, key); err != nil {
					logger.Warn(ctx, "release idempotency key", "key", key, "error", err)
				}
			}

			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec))
			c.Abort()
			if !c.Writer.Written() {
				c.JSON(appErr.HTTPStatus, errorBody(c, appErr))
			}
		}()
		c.Next()
	}
}
