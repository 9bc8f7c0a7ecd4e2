// Package store holds the resource service's demo items in memory.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/tokentrust/pkg/idx"
)

var ErrNotFound = errors.New("store: not found")

// Resource is an item owned by the subject that created it.
type Resource struct {
	ID        string
	Name      string
	Owner     string
	CreatedAt time.Time
}

// Summary counts resources per owner.
type Summary struct {
	Total   int
	ByOwner map[string]int
}

// Memory is a mutex-guarded resource table. The zero value is not usable;
// call NewMemory.
type Memory struct {
	mu    sync.RWMutex
	items map[string]Resource
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]Resource), now: time.Now}
}

// List returns every resource ordered by creation time, oldest first.
func (m *Memory) List(_ context.Context) ([]Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Resource, 0, len(m.items))
	for _, r := range m.items {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Resource) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *Memory) Create(_ context.Context, name, owner string) (Resource, error) {
	r := Resource{
		ID:        idx.New().String(),
		Name:      name,
		Owner:     owner,
		CreatedAt: m.now().UTC(),
	}

	m.mu.Lock()
	m.items[r.ID] = r
	m.mu.Unlock()
	return r, nil
}

// Delete returns ErrNotFound for unknown ids.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *Memory) Summary(_ context.Context) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{Total: len(m.items), ByOwner: make(map[string]int)}
	for _, r := range m.items {
		s.ByOwner[r.Owner]++
	}
	return s, nil
}
