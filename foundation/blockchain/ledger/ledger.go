// Package ledger maintains the address balances derived from the committed
// chain along with the minted supply counter.
package ledger

import (
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
)

// Ledger represents the mapping of address to balance plus the total amount
// of coin minted so far. A Ledger is not safe for concurrent use, callers
// must serialize access. The state package owns that serialization.
type Ledger struct {
	balances    map[string]float64
	totalMinted float64
	maxSupply   float64
	blockReward float64
}

// New constructs a ledger with no balances and nothing minted.
func New(maxSupply float64, blockReward float64) *Ledger {
	return &Ledger{
		balances:    make(map[string]float64),
		maxSupply:   maxSupply,
		blockReward: blockReward,
	}
}

// Replay rebuilds a ledger from a committed chain. Each non-genesis block
// applies its transactions and advances the minted counter. Blocks carry no
// miner address, so replayed rewards credit no one.
func Replay(chain []block.Block, maxSupply float64, blockReward float64) *Ledger {
	l := New(maxSupply, blockReward)

	for _, b := range chain {
		if b.Index == 0 {
			continue
		}
		for _, tx := range b.Transactions {
			l.ApplyTransaction(tx)
		}
		l.ApplyMiningReward("")
	}

	return l
}

// NewFromSnapshot constructs a ledger from persisted balances and minted
// supply so a node can resume where it left off.
func NewFromSnapshot(balances map[string]float64, totalMinted float64, maxSupply float64, blockReward float64) *Ledger {
	l := New(maxSupply, blockReward)
	for address, balance := range balances {
		l.balances[address] = balance
	}
	l.totalMinted = totalMinted

	return l
}

// Balance returns the committed balance for the specified address. Unseen
// addresses have a zero balance.
func (l *Ledger) Balance(address string) float64 {
	return l.balances[address]
}

// TotalMinted returns the amount of coin minted so far.
func (l *Ledger) TotalMinted() float64 {
	return l.totalMinted
}

// Copy returns a copy of the full balance sheet.
func (l *Ledger) Copy() map[string]float64 {
	balances := make(map[string]float64, len(l.balances))
	for address, balance := range l.balances {
		balances[address] = balance
	}

	return balances
}

// ApplyTransaction debits the sender and credits the recipient. Transactions
// are validated against committed balances at submission time only, so this
// never fails.
func (l *Ledger) ApplyTransaction(tx block.Tx) {
	l.balances[tx.Sender] -= tx.Amount
	l.balances[tx.Recipient] += tx.Amount
}

// ApplyMiningReward credits the miner with the block reward, capped so the
// total supply never exceeds the maximum. An empty miner address advances
// the minted counter without crediting anyone, which is the case for blocks
// received from peers since blocks do not carry a miner address. The applied
// reward is returned.
func (l *Ledger) ApplyMiningReward(miner string) float64 {
	reward := l.blockReward
	if remaining := l.maxSupply - l.totalMinted; reward > remaining {
		reward = remaining
	}

	if miner != "" {
		l.balances[miner] += reward
	}
	l.totalMinted += reward

	return reward
}
