package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"repairtrack-backend/internal/models"
)

// RequireRoles rejects callers whose role is not in the allowed set. It
// must run after IdentityMiddleware.
func RequireRoles(allowed ...string) gin.HandlerFunc {
	roleSet := make(map[string]bool, len(allowed))
	for _, r := range allowed {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
			c.Abort()
			return
		}

		if !roleSet[caller.Role] {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "insufficient role"})
			c.Abort()
			return
		}

		c.Next()
	}
}
