package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/peer"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/state"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage/memory"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/worker"
)

type capture struct {
	txs    chan block.Tx
	blocks chan block.Block
}

func (c *capture) SendTx(pr peer.Peer, tx block.Tx) error {
	c.txs <- tx
	return nil
}

func (c *capture) SendBlock(pr peer.Peer, b block.Block) error {
	c.blocks <- b
	return nil
}

func TestSharing(t *testing.T) {
	peers := peer.NewPeerSet()
	peers.Add(peer.New("localhost:5001"))

	st, err := state.New(state.Config{
		MinerAccount: "miner",
		Host:         "localhost:5000",
		Difficulty:   1,
		BlockReward:  6.25,
		MaxSupply:    21_000_000,
		Storage:      memory.New(),
		KnownPeers:   peers,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}
	defer st.Shutdown()

	sender := capture{
		txs:    make(chan block.Tx, 10),
		blocks: make(chan block.Block, 10),
	}

	worker.Run(st, &sender, func(v string, args ...any) {})

	mined, err := st.MineNewBlock(context.Background(), "")
	if err != nil {
		t.Fatalf("Should be able to mine a block: %v", err)
	}

	select {
	case b := <-sender.blocks:
		if b.Hash != mined.Hash {
			t.Fatalf("Should share the mined block, got %s.", b.Hash)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Should share the mined block with the peer.")
	}

	tx, err := st.SubmitTransaction("miner", "bob", 1, true)
	if err != nil {
		t.Fatalf("Should be able to submit a transaction: %v", err)
	}

	select {
	case got := <-sender.txs:
		if got != tx {
			t.Fatalf("Should share the submitted transaction, got %+v.", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Should share the submitted transaction with the peer.")
	}
}
