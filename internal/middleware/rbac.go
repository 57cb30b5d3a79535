package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boutledger/escrowsettle/internal/models"
)

// RequireRole aborts with 403 unless the authenticated caller's role is one
// of allowed. Must run after AuthMiddleware, which sets user_role.
func RequireRole(allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			_ = c.Error(models.NewAppError(http.StatusUnauthorized, "Unauthorized", nil))
			c.Abort()
			return
		}
		roleStr, _ := role.(string)
		for _, a := range allowed {
			if string(a) == roleStr {
				c.Next()
				return
			}
		}
		_ = c.Error(models.NewAppError(http.StatusForbidden, "Forbidden", nil))
		c.Abort()
	}
}
