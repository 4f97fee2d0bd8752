package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/idempotency"
	"erpcore/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			appErr = apperror.NewInternal(err)
		} else if appErr.Err != nil {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}

		body := errorBody(c, appErr)
		recordIdempotentFailure(c, appErr, body)
		c.JSON(appErr.HTTPStatus, body)
	}
}

func errorBody(c *gin.Context, appErr *apperror.AppError) gin.H {
	details := appErr.Details
	if appErr.Code == apperror.CodeInternal {
		details = map[string]any{"request_id": c.GetString("request_id")}
	}
	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": details,
	}
	if appErr.Retryable {
		body["retryable"] = true
	}
	if appErr.NonIdempotent {
		body["non_idempotent"] = true
	}
	return body
}

// recordIdempotentFailure stores the error response under the request's
// idempotency key. Retryable failures release the key instead so that the
// client may retry with the same key.
func recordIdempotentFailure(c *gin.Context, appErr *apperror.AppError, body gin.H) {
	key, store := idempotencyFrom(c)
	if store == nil {
		return
	}
	ctx := c.Request.Context()
	if appErr.Retryable {
		if err := store.ReleaseKey(ctx, key); err != nil {
			logger.Warn(ctx, "release idempotency key", "key", key, "error", err)
		}
		return
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	raw, _ := json.Marshal(body)
	if err := store.FailKey(ctx, key, status, "application/json", raw); err != nil {
		logger.Warn(ctx, "store idempotent failure", "key", key, "error", err)
	}
}

func idempotencyFrom(c *gin.Context) (string, idempotency.Store) {
	key := c.GetString(ContextIdempotencyKey)
	if key == "" {
		return "", nil
	}
	v, ok := c.Get(ContextIdempotencyStore)
	if !ok {
		return "", nil
	}
	store, _ := v.(idempotency.Store)
	return key, store
}
