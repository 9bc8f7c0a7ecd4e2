package jwtx

import (
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTL constants. Clients may override them per registration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType distinguishes access tokens from refresh tokens. A token is only
// ever accepted in the context that matches its type.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the token claims shared by the issuer and every verifier.
type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`

	// Roles as stored on the principal, e.g. ["USER", "ADMIN"].
	Roles []string `json:"roles,omitempty"`

	// Scope is space delimited, e.g. "read write".
	Scope string `json:"scope,omitempty"`

	// Permissions expanded from Roles at issue time, e.g. ["read:own"].
	Permissions []string `json:"permissions,omitempty"`

	IsAdmin bool `json:"is_admin,omitempty"`

	TokenType TokenType `json:"token_type,omitempty"`
}

// AccessClaimsParams carries the optional enrichment for an access token.
type AccessClaimsParams struct {
	Subject     string
	Email       string
	Name        string
	Roles       []string
	Scope       string
	Permissions []string
	IsAdmin     bool
}

// NewAccessClaims builds access-token claims with a fresh jti.
func NewAccessClaims(p AccessClaimsParams, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(p.Subject, ttl, issuer, audience, now),
		Email:            p.Email,
		Name:             p.Name,
		Roles:            p.Roles,
		Scope:            p.Scope,
		Permissions:      p.Permissions,
		IsAdmin:          p.IsAdmin,
		TokenType:        TokenTypeAccess,
	}
}

// NewRefreshClaims builds refresh-token claims. Refresh tokens carry no
// profile or role data, only the subject and the registered claims.
func NewRefreshClaims(subject string, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, ttl, issuer, audience, now),
		TokenType:        TokenTypeRefresh,
	}
}

func registered(subject string, ttl time.Duration, issuer string, audience []string, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings(audience),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a random UUIDv4 for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// Scopes splits the space-delimited scope claim.
func (c *Claims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// TTL is the remaining lifetime at now, or zero once expired.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(c.ExpiresAt.Sub(now), 0)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateTokenType ensures the token is being used in the right context.
func (c *Claims) ValidateTokenType(want TokenType) error {
	if c.TokenType != want {
		return ErrTokenType
	}
	return nil
}
