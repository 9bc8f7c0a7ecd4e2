// Package memory is an in-process revocation store. It only makes sense when
// the issuer and verifier share a process, which is the case in tests and
// single-binary development setups.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/tokentrust/internal/revocation"
)

type Store struct {
	mu      sync.RWMutex
	entries map[string]revocation.Entry
	now     func() time.Time
}

// New returns an empty store using the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests move time.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]revocation.Entry),
		now:     now,
	}
}

func (s *Store) Put(_ context.Context, tokenID, subject string, ttl time.Duration) error {
	if err := revocation.CheckPut(tokenID, ttl); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenID] = revocation.Entry{
		TokenID:   tokenID,
		Subject:   subject,
		ExpiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *Store) Exists(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[tokenID]
	return ok && s.now().Before(e.ExpiresAt), nil
}

func (s *Store) Delete(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tokenID]
	if !ok {
		return false, nil
	}
	delete(s.entries, tokenID)
	return s.now().Before(e.ExpiresAt), nil
}

// Purge removes entries whose expiry has passed.
func (s *Store) Purge(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of entries, lapsed ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }
