package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role values stored on user records and carried in token claims.
const (
	RoleStandard = "standard"
	RoleAdmin    = "admin"
)

// User represents an application user.
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SafeUser removes sensitive fields for response payloads.
func (u User) SafeUser() User {
	u.PasswordHash = ""
	return u
}

// AccessToken bundles a signed token with its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}
