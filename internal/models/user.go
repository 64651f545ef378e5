package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Guest is the fallback for an authenticated identity with no
// matching internal user row.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
	RoleClient     = "client"
	RoleGuest      = "guest"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID        int64     `json:"id"`
	AuthUID   uuid.UUID `json:"auth_uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Caller is the resolved identity a request acts as: the JWT subject mapped
// to the internal user row.
type Caller struct {
	UserID  int64
	AuthUID uuid.UUID
	Name    string
	Role    string
}
