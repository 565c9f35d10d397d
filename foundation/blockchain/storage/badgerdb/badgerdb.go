// Package badgerdb implements the storage interface on top of a Badger
// key-value database. The snapshot is stored as one record under a fixed
// key, Badger provides the atomicity of the write.
package badgerdb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage"
)

// snapshotKey is the fixed key the snapshot record is stored under.
var snapshotKey = []byte("snapshot")

// Store represents the snapshot store backed by a Badger database.
type Store struct {
	db *badger.DB
}

// New opens or creates a Badger database in the specified directory.
func New(dataDir string) (*Store, error) {
	opts := badger.DefaultOptions(dataDir)
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	return &Store{db: db}, nil
}

// Load reads the snapshot record from the database.
func (s *Store) Load() (storage.Snapshot, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
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

// Save writes the snapshot record to the database.
func (s *Store) Save(snapshot storage.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, data)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	return s.db.Close()
}
