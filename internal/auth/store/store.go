package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/tokentrust/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the issuer's principals.
// Live-token state is not kept here; see internal/revocation.
type Store interface {
	Users() Users
	Clients() Clients

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during the password grant.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists on a duplicate
	// id or username.
	CreateUser(ctx context.Context, u domain.User) error

	// SetUserStatus flips the enabled and locked flags and bumps updated_at.
	SetUserStatus(ctx context.Context, userID string, enabled, locked bool) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Clients interface {
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by creation date (newest first).
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts a new client. Returns ErrAlreadyExists on a
	// duplicate id.
	CreateClient(ctx context.Context, c domain.Client) error

	// IsEmpty returns true if there are no clients.
	IsEmpty(ctx context.Context) (bool, error)
}
