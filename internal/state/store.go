package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrSnapshotNotFound is returned when a learner has no stored
// snapshot yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists learner snapshots. Save replaces the whole snapshot
// atomically; there is no partial update.
type Store interface {
	Load(ctx context.Context, learnerID string) (*Snapshot, error)
	Save(ctx context.Context, learnerID string, s *Snapshot) error
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	snapshots map[string][]byte
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, learnerID string) (*Snapshot, error) {
	s.mu.RLock()
	data, ok := s.snapshots[learnerID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("learner %q: %w", learnerID, ErrSnapshotNotFound)
	}
	return Decode(data)
}

func (s *MemoryStore) Save(ctx context.Context, learnerID string, snap *Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshots[learnerID] = data
	s.mu.Unlock()
	return nil
}
