package mempool_test

import (
	"testing"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/mempool"
)

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []block.Tx
	}

	tt := []table{
		{
			name: "basic",
			txs: []block.Tx{
				{Sender: "alice", Recipient: "bob", Amount: 1},
				{Sender: "bob", Recipient: "carol", Amount: 2},
				{Sender: "carol", Recipient: "alice", Amount: 3},
			},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			mp := mempool.New()

			for _, tx := range tst.txs {
				mp.Append(tx)
			}

			if mp.Count() != len(tst.txs) {
				t.Fatalf("Test %s:\tShould hold %d transactions, got %d.", tst.name, len(tst.txs), mp.Count())
			}

			txs := mp.Copy()
			for i, tx := range tst.txs {
				if txs[i] != tx {
					t.Fatalf("Test %s:\tShould preserve submission order at %d.", tst.name, i)
				}
			}

			if !mp.Contains(tst.txs[0]) {
				t.Fatalf("Test %s:\tShould report a pending transaction as present.", tst.name)
			}

			if mp.Contains(block.Tx{Sender: "nobody", Recipient: "bob", Amount: 1}) {
				t.Fatalf("Test %s:\tShould not report an unknown transaction as present.", tst.name)
			}

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("Test %s:\tShould be empty after truncate, got %d.", tst.name, mp.Count())
			}

			if len(txs) != len(tst.txs) {
				t.Fatalf("Test %s:\tShould keep the copy independent of the pool.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func TestDuplicates(t *testing.T) {
	mp := mempool.New()
	tx := block.Tx{Sender: "alice", Recipient: "bob", Amount: 1}

	mp.Append(tx)
	mp.Append(tx)

	if mp.Count() != 2 {
		t.Fatalf("Should allow duplicate appends, got %d.", mp.Count())
	}
}
