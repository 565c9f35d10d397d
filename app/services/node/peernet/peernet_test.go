package peernet_test

import (
	"context"
	"testing"
	"time"

	"github.com/swarmcoin/swarmcoin/app/services/node/peernet"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/peer"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/state"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage/memory"
	"go.uber.org/zap"
)

func newTestState(t *testing.T) *state.State {
	st, err := state.New(state.Config{
		MinerAccount: "miner",
		Host:         "localhost:5000",
		Difficulty:   1,
		BlockReward:  6.25,
		MaxSupply:    21_000_000,
		Storage:      memory.New(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}

	return st
}

// waitFor polls the condition until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("Should %s before the deadline.", what)
}

func TestTransport(t *testing.T) {
	st := newTestState(t)

	// Fund alice so her transaction clears validation on the receiving side.
	if _, err := st.MineNewBlock(context.Background(), "alice"); err != nil {
		t.Fatalf("Should be able to mine a funding block: %v", err)
	}

	srv, err := peernet.NewServer("127.0.0.1:0", st, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("Should be able to start the listener: %v", err)
	}
	defer srv.Shutdown()

	client := peernet.NewClient(time.Second)
	pr := peer.New(srv.Addr())

	tx := block.Tx{Sender: "alice", Recipient: "bob", Amount: 1}
	if err := client.SendTx(pr, tx); err != nil {
		t.Fatalf("Should be able to send a transaction: %v", err)
	}

	waitFor(t, "land the transaction in the mempool", func() bool {
		pool := st.RetrieveMempool()
		return len(pool) == 1 && pool[0] == tx
	})

	head := st.RetrieveLatestBlock()
	nb := block.New(head.Index+1, head.Hash, nil)
	if err := nb.Mine(context.Background(), 1); err != nil {
		t.Fatalf("Should be able to mine the block: %v", err)
	}

	if err := client.SendBlock(pr, nb); err != nil {
		t.Fatalf("Should be able to send a block: %v", err)
	}

	waitFor(t, "commit the block", func() bool {
		return st.RetrieveLatestBlock().Hash == nb.Hash
	})
}

func TestMalformedMessage(t *testing.T) {
	st := newTestState(t)

	srv, err := peernet.NewServer("127.0.0.1:0", st, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("Should be able to start the listener: %v", err)
	}
	defer srv.Shutdown()

	client := peernet.NewClient(time.Second)
	pr := peer.New(srv.Addr())

	// An unknown sender fails validation on the receiving side. The send
	// itself succeeds, the protocol carries no replies.
	if err := client.SendTx(pr, block.Tx{Sender: "nobody", Recipient: "bob", Amount: 1}); err != nil {
		t.Fatalf("Should be able to send the message: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if got := len(st.RetrieveMempool()); got != 0 {
		t.Fatalf("Should drop the rejected transaction, got %d in the pool.", got)
	}
}
