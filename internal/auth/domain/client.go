package domain

import (
	"slices"
	"strings"
	"time"
)

// Client is an OAuth client. Disabled clients are rejected before their
// secret is compared.
type Client struct {
	ID         string
	Name       string
	SecretHash string
	GrantTypes []GrantType
	Scopes     []string

	// Zero means the service default.
	AccessTokenValidity  time.Duration
	RefreshTokenValidity time.Duration

	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllowsGrant reports whether g is registered for the client.
func (c Client) AllowsGrant(g GrantType) bool {
	return slices.Contains(c.GrantTypes, g)
}

// ScopeString is the client's allowed scopes, space delimited.
func (c Client) ScopeString() string {
	return strings.Join(c.Scopes, " ")
}

// AccessTTL returns the client's access validity or def.
func (c Client) AccessTTL(def time.Duration) time.Duration {
	if c.AccessTokenValidity > 0 {
		return c.AccessTokenValidity
	}
	return def
}

// RefreshTTL returns the client's refresh validity or def.
func (c Client) RefreshTTL(def time.Duration) time.Duration {
	if c.RefreshTokenValidity > 0 {
		return c.RefreshTokenValidity
	}
	return def
}
