package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"repairtrack-backend/internal/identity"
	"repairtrack-backend/internal/models"
)

const CallerKey = "caller"

// IdentityMiddleware maps the validated auth uid to the internal user row
// and attaches the resulting caller. An authenticated identity with no user
// row proceeds as a guest: routes stay reachable but role-scoped queries
// return nothing. Inactive users are rejected outright.
func IdentityMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, exists := c.Get(AuthUIDKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
			c.Abort()
			return
		}

		authUID, err := uuid.Parse(sub.(string))
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid user id"})
			c.Abort()
			return
		}

		caller, err := resolver.Resolve(c.Request.Context(), authUID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			caller = models.Caller{AuthUID: authUID, Role: models.RoleGuest}
		case errors.Is(err, models.ErrForbidden):
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "account is inactive"})
			c.Abort()
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to resolve user"})
			c.Abort()
			return
		}

		c.Set(CallerKey, caller)
		c.Next()
	}
}

// CallerFrom pulls the resolved caller out of the request context.
func CallerFrom(c *gin.Context) (models.Caller, bool) {
	v, exists := c.Get(CallerKey)
	if !exists {
		return models.Caller{}, false
	}
	caller, ok := v.(models.Caller)
	return caller, ok
}
