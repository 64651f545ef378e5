// Package identity maps the external auth identity (the JWT subject) to the
// internal user record that carries role and status.
package identity

import (
	"context"

	"github.com/google/uuid"

	"repairtrack-backend/internal/models"
)

// Resolver turns an auth uid into a Caller. Implementations return
// models.ErrNotFound when no internal user exists for the uid.
type Resolver interface {
	Resolve(ctx context.Context, authUID uuid.UUID) (models.Caller, error)
}
