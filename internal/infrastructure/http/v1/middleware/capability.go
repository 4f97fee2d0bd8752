// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"erpcore/internal/core/security"
)

// RequireCapability rejects the request unless policy lets the current user
// perform op. Must run after Auth.
func RequireCapability(policy security.Policy, op security.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := security.AuthorizeContext(c.Request.Context(), policy, op); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set("operation", string(op))
		c.Next()
	}
}
