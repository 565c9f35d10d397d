// Package memory implements the storage interface in memory, primarily for
// testing.
package memory

import (
	"sync"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage"
)

// Memory represents an in-memory snapshot store.
type Memory struct {
	mu       sync.Mutex
	snapshot storage.Snapshot
	saved    bool
}

// New constructs an in-memory snapshot store.
func New() *Memory {
	return &Memory{}
}

// Load returns the last saved snapshot.
func (m *Memory) Load() (storage.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return storage.Snapshot{}, storage.ErrNoSnapshot
	}

	return m.snapshot, nil
}

// Save keeps the snapshot in memory.
func (m *Memory) Save(snapshot storage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot = snapshot
	m.saved = true

	return nil
}

// Close has nothing to release.
func (m *Memory) Close() error {
	return nil
}
