package authsdk

import (
	"time"

	"github.com/aussiebroadwan/tokentrust/pkg/jwtx"
)

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of every error answered by the issuer and
// the resource service. Client code should use OAuth2Error instead.
type ErrorResponse struct {
	// Error is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Error string `json:"error" example:"invalid_grant"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description" example:"invalid credentials"`

	// Code is the service error code, e.g. "AUTH-001" or "TOKEN-002"
	Code string `json:"code,omitempty" example:"AUTH-001"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse represents the OAuth2 token endpoint response per RFC 6749.
type TokenResponse struct {
	// AccessToken is the RS256 signed JWT used to call resource services
	AccessToken string `json:"access_token"`

	// RefreshToken is a JWT with token_type "refresh"; omitted for client_credentials
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer" per OAuth2 spec
	TokenType string `json:"token_type" example:"Bearer"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in" example:"3600"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope,omitempty" example:"read write"`

	// IssuedAt is the issue time in epoch seconds
	IssuedAt int64 `json:"issued_at" example:"1767225600"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency as "ok" or "error: ...". Database is
// omitted by services without one.
type HealthChecks struct {
	Database   string `json:"database,omitempty"`
	Revocation string `json:"revocation"`
	Keys       string `json:"keys"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set.
// This is returned from the GET /.well-known/jwks.json endpoint and contains
// public keys used to verify JWT signatures.
type JWKSResponse jwtx.JWKS

// ============================================================================
// Resource Service Types
// ============================================================================

// PrincipalResponse is the verified caller as seen by a resource service.
type PrincipalResponse struct {
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

// Resource is an item held by the demo resource service.
type Resource struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateResourceRequest struct {
	Name string `json:"name"`
}

type ListResourcesResponse struct {
	Resources []Resource `json:"resources"`
}

// AdminSummaryResponse is only served to ADMIN principals.
type AdminSummaryResponse struct {
	Resources int            `json:"resources"`
	ByOwner   map[string]int `json:"by_owner"`
}
