package public

import "github.com/swarmcoin/swarmcoin/foundation/blockchain/block"

// submitTx is what a client sends to submit a new transaction. The sender
// is an unverified label, there is no signature in this design.
type submitTx struct {
	Sender    string  `json:"sender" validate:"required"`
	Recipient string  `json:"recipient" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

// mineRequest allows a client to override the miner address credited with
// the block reward. The node's configured account is used when empty.
type mineRequest struct {
	Miner string `json:"miner"`
}

// registerPeer is what a client sends to add a peer endpoint directly.
type registerPeer struct {
	Host string `json:"host" validate:"required"`
}

// chainInfo is the response for the chain query.
type chainInfo struct {
	Height int           `json:"height"`
	Blocks []block.Block `json:"blocks"`
}

// stateInfo is the response summarizing the full node state.
type stateInfo struct {
	Height      int                `json:"height"`
	LatestHash  string             `json:"latest_hash"`
	Balances    map[string]float64 `json:"balances"`
	TotalMinted float64            `json:"total_minted"`
	PendingTx   []block.Tx         `json:"pending_tx"`
	Peers       []string           `json:"peers"`
}

// balanceInfo is the response for a single balance query.
type balanceInfo struct {
	Account string  `json:"account"`
	Balance float64 `json:"balance"`
}
