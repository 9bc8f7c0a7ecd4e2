package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/revocation"
	"github.com/aussiebroadwan/tokentrust/internal/revocation/drivers/memory"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_PutExistsDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.Put(ctx, "jti-1", "alice", time.Minute))

	ok, err := s.Exists(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Exists(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, ok)

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

func TestStore_RejectsBadArguments(t *testing.T) {
	s := memory.New()
	require.ErrorIs(t, s.Put(context.Background(), "jti", "alice", 0), revocation.ErrInvalidTTL)
	require.ErrorIs(t, s.Put(context.Background(), "jti", "alice", -time.Second), revocation.ErrInvalidTTL)
	require.ErrorIs(t, s.Put(context.Background(), "", "alice", time.Second), revocation.ErrEmptyTokenID)
}

func TestStore_LapsedEntriesAreNotLive(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := memory.NewWithClock(c.Now)

	require.NoError(t, s.Put(ctx, "short", "alice", time.Minute))
	require.NoError(t, s.Put(ctx, "long", "bob", time.Hour))

	c.Advance(2 * time.Minute)

	ok, err := s.Exists(ctx, "short")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Exists(ctx, "long")
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := s.Purge(ctx, c.Now())
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Equal(t, 1, s.Len())
}
