package domain

import (
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/authz"
)

// User is an end-user principal. A locked or disabled user can never be
// authenticated or issued a token, whatever credentials are presented.
type User struct {
	ID           string
	Username     string
	Email        string
	Name         string
	PasswordHash string   // argon2 encoded
	Roles        []string // ordered, e.g. ["USER", "ADMIN"]
	Enabled      bool
	Locked       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAuthenticate is true for enabled, unlocked users.
func (u User) CanAuthenticate() bool {
	return u.Enabled && !u.Locked
}

// CanReceiveToken additionally requires at least one role.
func (u User) CanReceiveToken() bool {
	return u.CanAuthenticate() && len(u.Roles) > 0
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u User) IsAdmin() bool {
	return authz.IsAdmin(u.Roles)
}

// Permissions expands the user's roles.
func (u User) Permissions() []string {
	return authz.PermissionsFor(u.Roles)
}
