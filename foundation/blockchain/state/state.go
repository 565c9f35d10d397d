// Package state is the core API for the blockchain node and implements all
// the business rules and processing. Every mutation of the chain, ledger,
// mempool, and peer set is serialized through the one mutex owned here.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/ledger"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/mempool"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/peer"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage"
)

// ErrInsufficientBalance is returned when a sender's committed balance does
// not cover the transaction amount. Pending mempool debits are not checked,
// that gap is a documented property of this design.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrPersistence is returned when writing the snapshot fails. The node can
// no longer guarantee its state survives a restart, callers must treat this
// as fatal.
var ErrPersistence = errors.New("snapshot persistence failure")

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of the node.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for sharing transactions and blocks with
// the known peers.
type Worker interface {
	Shutdown()
	SignalShareTx(tx block.Tx)
	SignalShareBlock(b block.Block)
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	MinerAccount string
	Host         string
	Difficulty   int
	BlockReward  float64
	MaxSupply    float64
	Storage      storage.Storage
	KnownPeers   *peer.PeerSet
	EvHandler    EventHandler
}

// State manages the blockchain node data.
type State struct {
	mu sync.Mutex

	minerAccount string
	host         string
	difficulty   int
	evHandler    EventHandler

	chain      []block.Block
	ledger     *ledger.Ledger
	mempool    *mempool.Mempool
	knownPeers *peer.PeerSet
	storage    storage.Storage

	cancelMu sync.Mutex
	cancels  map[uint64]context.CancelFunc
	cancelID uint64

	// Worker is registered by the worker package at startup.
	Worker Worker
}

// New constructs the node state, loading the persisted snapshot or creating
// a fresh chain from genesis.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	s := State{
		minerAccount: cfg.MinerAccount,
		host:         cfg.Host,
		difficulty:   cfg.Difficulty,
		evHandler:    ev,
		mempool:      mempool.New(),
		knownPeers:   cfg.KnownPeers,
		storage:      cfg.Storage,
		cancels:      make(map[uint64]context.CancelFunc),
	}
	if s.knownPeers == nil {
		s.knownPeers = peer.NewPeerSet()
	}

	snapshot, err := cfg.Storage.Load()
	switch {
	case errors.Is(err, storage.ErrNoSnapshot):
		s.chain = []block.Block{block.Genesis()}
		s.ledger = ledger.New(cfg.MaxSupply, cfg.BlockReward)
		if err := s.saveSnapshot(); err != nil {
			return nil, err
		}
		ev("state: started fresh chain from genesis: hash[%s]", s.chain[0].Hash)

	case err != nil:
		return nil, fmt.Errorf("load snapshot: %w", err)

	default:
		s.chain = snapshot.Chain

		// A snapshot missing the balance sheet is rebuilt from the chain.
		if snapshot.Balances == nil {
			s.ledger = ledger.Replay(snapshot.Chain, cfg.MaxSupply, cfg.BlockReward)
		} else {
			s.ledger = ledger.NewFromSnapshot(snapshot.Balances, snapshot.TotalMinted, cfg.MaxSupply, cfg.BlockReward)
		}
		for _, tx := range snapshot.PendingTx {
			s.mempool.Append(tx)
		}
		for _, host := range snapshot.Peers {
			s.knownPeers.Add(peer.New(host))
		}
		ev("state: resumed from snapshot: blocks[%d] pending[%d] peers[%d]", len(s.chain), s.mempool.Count(), s.knownPeers.Count())
	}

	return &s, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	defer func() {
		s.storage.Close()
	}()

	s.cancelMining()

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================

// SubmitTransaction validates a transaction against the committed balance of
// the sender and adds it to the mempool. When share is true the transaction
// is fanned out to the known peers. The ledger is not touched until a block
// containing the transaction is mined.
func (s *State) SubmitTransaction(sender string, recipient string, amount float64, share bool) (block.Tx, error) {
	tx := block.Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}

	if err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ledger.Balance(sender) < amount {
			return fmt.Errorf("sender %q has %v, needs %v: %w", sender, s.ledger.Balance(sender), amount, ErrInsufficientBalance)
		}

		s.mempool.Append(tx)

		return s.saveSnapshot()
	}(); err != nil {
		return block.Tx{}, err
	}

	s.evHandler("state: SubmitTransaction: accepted: %s -> %s amount[%v]", sender, recipient, amount)

	if share && s.Worker != nil {
		s.Worker.SignalShareTx(tx)
	}

	return tx, nil
}

// UpsertPeerTransaction adds a transaction received from a peer to the
// mempool unless an equal transaction is already pending. Broadcasting is
// suppressed, propagation is exactly one hop from the originator.
func (s *State) UpsertPeerTransaction(tx block.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mempool.Contains(tx) {
		s.evHandler("state: UpsertPeerTransaction: duplicate tx ignored")
		return nil
	}

	if s.ledger.Balance(tx.Sender) < tx.Amount {
		return fmt.Errorf("sender %q has %v, needs %v: %w", tx.Sender, s.ledger.Balance(tx.Sender), tx.Amount, ErrInsufficientBalance)
	}

	s.mempool.Append(tx)

	return s.saveSnapshot()
}

// MineNewBlock snapshots the current mempool into a candidate block linked
// to the chain head and performs the proof of work search. The search is
// CPU-bound and unbounded, it runs on the calling goroutine and can be
// abandoned through the context or by the acceptance of a competing peer
// block. The mined block passes the same validation as an inbound block
// before it is committed.
func (s *State) MineNewBlock(ctx context.Context, miner string) (block.Block, error) {
	if miner == "" {
		miner = s.minerAccount
	}

	// Take a value snapshot of the pending transactions and the chain head.
	// Transactions arriving while mining runs are dropped when the pool is
	// cleared on commit, they are not re-queued.
	s.mu.Lock()
	txs := s.mempool.Copy()
	head := s.chain[len(s.chain)-1]
	s.mu.Unlock()

	nb := block.New(head.Index+1, head.Hash, txs)

	// Register a cancellation point so the acceptance of a competing block
	// for this height can abandon the search.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unregister := s.registerMining(cancel)
	defer unregister()

	s.evHandler("state: MineNewBlock: MINING: started: block[%d] txs[%d]", nb.Index, len(nb.Transactions))

	if err := nb.Mine(ctx, s.difficulty); err != nil {
		s.evHandler("state: MineNewBlock: MINING: cancelled: block[%d]", nb.Index)
		return block.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: solved: block[%d] nonce[%d] hash[%s]", nb.Index, nb.Nonce, nb.Hash)

	if err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		return s.acceptBlock(nb, miner)
	}(); err != nil {
		return block.Block{}, err
	}

	if s.Worker != nil {
		s.Worker.SignalShareBlock(nb)
	}

	return nb, nil
}

// ProcessPeerBlock takes a block received from a peer, validates it, and if
// that passes commits it. A commit cancels any in-flight local mining
// attempt since it would now be producing a stale block.
func (s *State) ProcessPeerBlock(b block.Block) error {
	s.evHandler("state: ProcessPeerBlock: started: block[%d] hash[%s]", b.Index, b.Hash)

	if err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		return s.acceptBlock(b, "")
	}(); err != nil {
		return err
	}

	s.cancelMining()
	s.evHandler("state: ProcessPeerBlock: accepted: block[%d]", b.Index)

	return nil
}

// acceptBlock runs the full validation on a candidate and applies its
// effects. The first valid block for a height wins, any later block for
// the same height fails the index check and is lost for good. The caller
// must hold the state mutex.
func (s *State) acceptBlock(b block.Block, miner string) error {
	head := s.chain[len(s.chain)-1]

	if err := block.ValidateNext(b, head, s.difficulty); err != nil {
		return err
	}

	s.chain = append(s.chain, b)

	for _, tx := range b.Transactions {
		s.ledger.ApplyTransaction(tx)
	}
	s.ledger.ApplyMiningReward(miner)

	// The whole pool is cleared, including transactions unrelated to this
	// block and any that arrived after the mining snapshot was taken.
	s.mempool.Truncate()

	return s.saveSnapshot()
}

// =============================================================================

// AddKnownPeer adds an endpoint to the peer set. It reports whether the
// endpoint was new.
func (s *State) AddKnownPeer(host string) bool {
	if peer.New(host).Match(s.host) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.knownPeers.Add(peer.New(host))
	if added {
		if err := s.saveSnapshot(); err != nil {
			s.evHandler("state: AddKnownPeer: ERROR: %s", err)
		}
	}

	return added
}

// =============================================================================

// registerMining records the cancel function for an in-flight mining
// attempt and returns a function to unregister it.
func (s *State) registerMining(cancel context.CancelFunc) func() {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	id := s.cancelID
	s.cancelID++
	s.cancels[id] = cancel

	return func() {
		s.cancelMu.Lock()
		defer s.cancelMu.Unlock()

		delete(s.cancels, id)
	}
}

// cancelMining abandons every in-flight mining attempt.
func (s *State) cancelMining() {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	for _, cancel := range s.cancels {
		cancel()
	}
}

// saveSnapshot persists the full node state as one record. The caller must
// hold the state mutex. A failure is wrapped in ErrPersistence so callers
// can shut the node down.
func (s *State) saveSnapshot() error {
	snapshot := storage.Snapshot{
		Chain:       s.chain,
		PendingTx:   s.mempool.Copy(),
		Balances:    s.ledger.Copy(),
		TotalMinted: s.ledger.TotalMinted(),
	}

	for _, pr := range s.knownPeers.Copy("") {
		snapshot.Peers = append(snapshot.Peers, pr.Host)
	}

	if err := s.storage.Save(snapshot); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return nil
}
