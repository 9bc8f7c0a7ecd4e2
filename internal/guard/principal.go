// Package guard is the verifying side of the token trust core: it turns a
// presented bearer token into a Principal and decides what that principal
// may do.
package guard

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/authz"
	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
)

// Principal is the verified caller extracted from a live token.
type Principal struct {
	Subject     string    `json:"sub"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	Roles       []string  `json:"roles,omitempty"`
	Scopes      []string  `json:"scopes,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	TokenID     string    `json:"jti"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func principalFromClaims(c jwtx.Claims) *Principal {
	p := &Principal{
		Subject:     c.Subject,
		Email:       c.Email,
		Name:        c.Name,
		Roles:       slices.Clone(c.Roles),
		Scopes:      c.Scopes(),
		Permissions: slices.Clone(c.Permissions),
		IsAdmin:     c.IsAdmin || authz.IsAdmin(c.Roles),
		TokenID:     c.ID,
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}
