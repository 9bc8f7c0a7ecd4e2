package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/redis"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := redis.New(redis.Options{Addr: mr.Addr(), Timeout: time.Second})
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_PutExistsDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Put(ctx, "jti-1", "alice", time.Hour))

	require.True(t, mr.Exists(redis.DefaultKeyPrefix+"jti-1"))
	require.Equal(t, time.Hour, mr.TTL(redis.DefaultKeyPrefix+"jti-1"))

	ok, err := s.Exists(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	subject, err := mr.Get(redis.DefaultKeyPrefix + "jti-1")
	require.NoError(t, err)
	require.Equal(t, "alice", subject)

	deleted, err := s.Delete(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = s.Delete(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, deleted)

	ok, err = s.Exists(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_EntryLapsesWithTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)

	require.NoError(t, s.Put(ctx, "jti-1", "alice", time.Minute))
	mr.FastForward(2 * time.Minute)

	ok, err := s.Exists(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_RejectsBadArguments(t *testing.T) {
	s, _ := newStore(t)
	require.ErrorIs(t, s.Put(context.Background(), "jti", "alice", 0), revocation.ErrInvalidTTL)
	require.ErrorIs(t, s.Put(context.Background(), "", "alice", time.Minute), revocation.ErrEmptyTokenID)
}

func TestStore_UnavailableSurfacesError(t *testing.T) {
	ctx := context.Background()
	s, mr := newStore(t)
	mr.SetError("LOADING Redis is loading the dataset in memory")

	_, err := s.Exists(ctx, "jti-1")
	require.Error(t, err)

	require.Error(t, s.Put(ctx, "jti-1", "alice", time.Minute))
	require.Error(t, s.Ping(ctx))
}

func TestStore_CustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	s := redis.New(redis.Options{Addr: mr.Addr(), KeyPrefix: "custom:"})
	defer s.Close()

	require.NoError(t, s.Put(context.Background(), "jti-1", "alice", time.Minute))
	require.True(t, mr.Exists("custom:jti-1"))
}
