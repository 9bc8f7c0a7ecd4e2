// Package revocation defines the shared registry of live tokens.
//
// Every issued token registers its jti here with a TTL equal to its own
// validity. Validators treat absence as "not live": a token whose entry was
// deleted (revoked) or has lapsed is rejected even if its signature and expiry
// still check out. The registry is the only state shared between the issuer
// and the verifying services.
package revocation

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidTTL   = errors.New("revocation: ttl must be positive")
	ErrEmptyTokenID = errors.New("revocation: empty token id")
)

// Store is a TTL-bearing token-id -> subject registry.
type Store interface {
	// Put registers tokenID as live for ttl.
	Put(ctx context.Context, tokenID, subject string, ttl time.Duration) error

	// Exists reports whether tokenID is registered and not yet lapsed.
	Exists(ctx context.Context, tokenID string) (bool, error)

	// Delete removes tokenID and reports whether a live entry was removed.
	Delete(ctx context.Context, tokenID string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Purger is implemented by stores that need lapsed entries swept
// periodically. Redis expires keys on its own and does not implement it.
type Purger interface {
	Purge(ctx context.Context, now time.Time) (int, error)
}

// Entry is a registered token.
type Entry struct {
	TokenID   string
	Subject   string
	ExpiresAt time.Time
}

// CheckPut validates Put arguments; drivers call it first.
func CheckPut(tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return ErrEmptyTokenID
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
