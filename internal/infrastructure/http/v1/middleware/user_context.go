package middleware

import (
	"github.com/gin-gonic/gin"

	"erpcore/pkg/logger"
)

// UserContext binds the request logger to the request context so that domain
// code logging through logger.Info(ctx, ...) carries trace and user fields.
//
// Must run AFTER Auth:
//
//	protected.Use(middleware.Auth(cfg.JWTValidator))
//	protected.Use(middleware.UserContext(cfg.Logger))
func UserContext(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if log == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		if userID := c.GetString("user_id"); userID != "" {
			ctx = logger.WithLogger(ctx, log)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
