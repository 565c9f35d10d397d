// Package disk implements the storage interface with a single JSON snapshot
// file on disk.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage"
)

// Disk represents the snapshot store backed by one file on disk. Writes go
// to a temp file first and are renamed into place so a crash mid-write can
// never leave a partial snapshot behind.
type Disk struct {
	path string
}

// New constructs a disk snapshot store at the specified file path.
func New(path string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	return &Disk{path: path}, nil
}

// Load reads the snapshot file from disk.
func (d *Disk) Load() (storage.Snapshot, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.Snapshot{}, storage.ErrNoSnapshot
		}
		return storage.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot storage.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return storage.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	return snapshot, nil
}

// Save writes the snapshot to disk atomically.
func (d *Disk) Save(snapshot storage.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

// Close in this implementation has nothing to do since the file is opened
// and closed on each save.
func (d *Disk) Close() error {
	return nil
}
