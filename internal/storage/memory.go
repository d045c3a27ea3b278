package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps a snapshot in process. Snapshots are deep-copied in both
// directions.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return Snapshot{}, ErrNoCheckpoint
	}
	return cloneSnapshot(*s.snapshot), nil
}

func (s *MemoryStore) Save(_ context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := cloneSnapshot(snapshot)
	s.snapshot = &copied
	return nil
}

// Reset drops the stored snapshot.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}
