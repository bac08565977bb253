package snapshot

import (
	"context"
	"sync"
)

// MemoryStore keeps the snapshot in memory for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	snap  Snapshot
	saved bool
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return Empty(), nil
	}
	return s.snap, nil
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.saved = true
	s.saves++
	return nil
}

// Saves reports how many times Save was called, for asserting the
// persist-after-every-mutation contract.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
