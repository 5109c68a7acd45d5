package store

import (
	"context"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/admission/bucket"
)

// MemoryStore keeps quota state in an in-process map.
//
// It satisfies the per-user serialization contract within a single
// process only. Across a fleet it is advisory at best and must never be
// the source of truth; use the SQLite, Postgres, or Redis backend there.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	state     bucket.State
	updatedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
	}
}

// AtomicUpdate applies fn under the store lock. fn runs exactly once.
func (m *MemoryStore) AtomicUpdate(ctx context.Context, userID string, fn UpdateFunc) (bucket.State, error) {
	if userID == "" {
		return bucket.State{}, ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return bucket.State{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var prev *bucket.State
	if e, ok := m.entries[userID]; ok {
		s := e.state
		prev = &s
	}

	next, err := fn(prev)
	if err != nil {
		return bucket.State{}, err
	}

	m.entries[userID] = &memoryEntry{state: next, updatedAt: time.Now()}
	return next, nil
}

// Cleanup removes entries not updated since olderThan.
func (m *MemoryStore) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for userID, e := range m.entries {
		if e.updatedAt.Before(olderThan) {
			delete(m.entries, userID)
			deleted++
		}
	}
	return deleted, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// Len reports the number of stored records. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
