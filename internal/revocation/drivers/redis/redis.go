// Package redis stores live-token entries as Redis keys with a native TTL,
// so lapsed entries vanish without a sweeper.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces token keys.
const DefaultKeyPrefix = "tokentrust:token:"

type Options struct {
	Addr     string
	Password string
	DB       int

	// Timeout bounds dial, read and write. Zero uses go-redis defaults.
	Timeout time.Duration

	KeyPrefix string
}

type Store struct {
	client *goredis.Client
	prefix string
}

// New connects lazily; call Ping to check reachability.
func New(opts Options) *Store {
	ro := &goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
	if opts.Timeout > 0 {
		ro.DialTimeout = opts.Timeout
		ro.ReadTimeout = opts.Timeout
		ro.WriteTimeout = opts.Timeout
	}
	return NewFromClient(goredis.NewClient(ro), opts.KeyPrefix)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(tokenID string) string {
	return s.prefix + tokenID
}

func (s *Store) Put(ctx context.Context, tokenID, subject string, ttl time.Duration) error {
	if err := revocation.CheckPut(tokenID, ttl); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(tokenID), subject, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", tokenID, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: exists %s: %w", tokenID, err)
	}
	return n > 0, nil
}

func (s *Store) Delete(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: del %s: %w", tokenID, err)
	}
	return n > 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
