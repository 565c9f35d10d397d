// Package storage declares the snapshot record written after every mutating
// operation and the behavior required of a snapshot store. The engine does
// not know the storage medium, implementations live in the subpackages.
package storage

import (
	"errors"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
)

// ErrNoSnapshot is returned by Load when no snapshot has ever been saved.
// The caller starts a fresh chain from genesis in that case.
var ErrNoSnapshot = errors.New("no snapshot exists")

// Snapshot represents the full node state written as one record. Cost of a
// save grows with chain length, that is a documented scaling limit of this
// design.
type Snapshot struct {
	Chain       []block.Block      `json:"chain"`
	PendingTx   []block.Tx         `json:"pending_tx"`
	Balances    map[string]float64 `json:"balances"`
	TotalMinted float64            `json:"total_minted"`
	Peers       []string           `json:"peers"`
}

// Storage interface represents the behavior required to be implemented by
// any package providing persistence for the node state.
type Storage interface {
	Load() (Snapshot, error)
	Save(snapshot Snapshot) error
	Close() error
}
