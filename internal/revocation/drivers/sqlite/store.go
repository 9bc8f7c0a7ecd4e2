// Package sqlite keeps live-token entries in a sqlite table. Several
// processes can share one database file in WAL mode; lapsed rows are ignored
// on read and removed by Purge.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

// migrationsTable keeps this schema's version apart from the auth schema
// when both live in one file.
const migrationsTable = "revocation_schema_migrations"

const (
	upsertToken = `INSERT INTO active_tokens (token_id, subject, expires_at) VALUES (?, ?, ?)
ON CONFLICT (token_id) DO UPDATE SET subject = excluded.subject, expires_at = excluded.expires_at`
	existsToken = `SELECT 1 FROM active_tokens WHERE token_id = ? AND expires_at > ?`
	deleteToken = `DELETE FROM active_tokens WHERE token_id = ? AND expires_at > ?`
	purgeTokens = `DELETE FROM active_tokens WHERE expires_at <= ?`
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DSN builds the shared-file DSN used by both services.
func DSN(file string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
}

// NewStore opens dsn and applies migrations.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := NewStoreFromDB(db, time.Now)
	if err := s.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("revocation sqlite: migrate: %w", err)
	}
	return s, nil
}

// NewStoreFromDB wraps an open database without migrating it.
func NewStoreFromDB(db *sql.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

// ApplyMigrations brings the schema up to date.
func (s *Store) ApplyMigrations() error {
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "", driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Store) Put(ctx context.Context, tokenID, subject string, ttl time.Duration) error {
	if err := revocation.CheckPut(tokenID, ttl); err != nil {
		return err
	}
	expires := s.now().Add(ttl).UnixMilli()
	if _, err := s.db.ExecContext(ctx, upsertToken, tokenID, subject, expires); err != nil {
		return fmt.Errorf("revocation sqlite: put: %w", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, tokenID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, existsToken, tokenID, s.now().UnixMilli()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("revocation sqlite: exists: %w", err)
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, tokenID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, deleteToken, tokenID, s.now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("revocation sqlite: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revocation sqlite: delete: %w", err)
	}
	return n > 0, nil
}

// Purge removes rows that lapsed at or before now.
func (s *Store) Purge(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, purgeTokens, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("revocation sqlite: purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
