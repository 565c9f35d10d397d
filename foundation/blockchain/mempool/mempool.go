// Package mempool maintains the pool of transactions submitted but not yet
// mined into a block.
package mempool

import (
	"sync"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
)

// Mempool represents the ordered list of pending transactions. Membership
// does not reserve or debit any balance. Equality is structural, two
// transactions with identical fields are the same transaction.
type Mempool struct {
	mu   sync.RWMutex
	pool []block.Tx
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Append adds a transaction to the end of the pool. Duplicates are allowed,
// deduplication is a peer protocol concern handled by the caller.
func (mp *Mempool) Append(tx block.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)
}

// Contains reports whether an equal transaction is already in the pool.
func (mp *Mempool) Contains(tx block.Tx) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for _, have := range mp.pool {
		if have == tx {
			return true
		}
	}

	return false
}

// Copy returns a snapshot of the pool in submission order. The snapshot is
// independent of the pool, later mutations don't affect it.
func (mp *Mempool) Copy() []block.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]block.Tx, len(mp.pool))
	copy(txs, mp.pool)

	return txs
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}
