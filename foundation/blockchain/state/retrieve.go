package state

import (
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/peer"
)

// RetrieveHost returns the endpoint this node identifies itself with.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveChain returns a copy of the committed chain.
func (s *State) RetrieveChain() []block.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := make([]block.Block, len(s.chain))
	copy(chain, s.chain)

	return chain
}

// RetrieveChainLength returns the number of committed blocks.
func (s *State) RetrieveChainLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.chain)
}

// RetrieveLatestBlock returns the current chain head.
func (s *State) RetrieveLatestBlock() block.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain[len(s.chain)-1]
}

// RetrieveMempool returns a copy of the pending transactions in
// submission order.
func (s *State) RetrieveMempool() []block.Tx {
	return s.mempool.Copy()
}

// RetrieveBalances returns a copy of the full balance sheet.
func (s *State) RetrieveBalances() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Copy()
}

// RetrieveBalance returns the committed balance for one address.
func (s *State) RetrieveBalance(address string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Balance(address)
}

// RetrieveTotalMinted returns the amount of coin in circulation.
func (s *State) RetrieveTotalMinted() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.TotalMinted()
}

// RetrieveKnownPeers returns the known peers, excluding this node.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}
