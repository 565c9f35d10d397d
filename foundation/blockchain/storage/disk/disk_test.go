package disk_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage/disk"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "chain_state.json")

	d, err := disk.New(path)
	if err != nil {
		t.Fatalf("Should be able to construct disk storage: %v", err)
	}
	defer d.Close()

	if _, err := d.Load(); !errors.Is(err, storage.ErrNoSnapshot) {
		t.Fatalf("Should report no snapshot on a fresh path, got %v.", err)
	}

	genesis := block.Genesis()
	snapshot := storage.Snapshot{
		Chain:       []block.Block{genesis},
		PendingTx:   []block.Tx{{Sender: "alice", Recipient: "bob", Amount: 1}},
		Balances:    map[string]float64{"alice": 6.25},
		TotalMinted: 6.25,
		Peers:       []string{"localhost:5001"},
	}

	if err := d.Save(snapshot); err != nil {
		t.Fatalf("Should be able to save a snapshot: %v", err)
	}

	loaded, err := d.Load()
	if err != nil {
		t.Fatalf("Should be able to load the snapshot back: %v", err)
	}

	if len(loaded.Chain) != 1 || loaded.Chain[0].Hash != genesis.Hash {
		t.Fatal("Should load the same chain that was saved.")
	}

	if len(loaded.PendingTx) != 1 || loaded.PendingTx[0] != snapshot.PendingTx[0] {
		t.Fatal("Should load the same pending transactions that were saved.")
	}

	if loaded.Balances["alice"] != 6.25 || loaded.TotalMinted != 6.25 {
		t.Fatal("Should load the same balances that were saved.")
	}

	if len(loaded.Peers) != 1 || loaded.Peers[0] != "localhost:5001" {
		t.Fatal("Should load the same peers that were saved.")
	}
}

func TestOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain_state.json")

	d, err := disk.New(path)
	if err != nil {
		t.Fatalf("Should be able to construct disk storage: %v", err)
	}
	defer d.Close()

	if err := d.Save(storage.Snapshot{TotalMinted: 6.25}); err != nil {
		t.Fatalf("Should be able to save the first snapshot: %v", err)
	}
	if err := d.Save(storage.Snapshot{TotalMinted: 12.5}); err != nil {
		t.Fatalf("Should be able to save over the first snapshot: %v", err)
	}

	loaded, err := d.Load()
	if err != nil {
		t.Fatalf("Should be able to load the snapshot back: %v", err)
	}

	if loaded.TotalMinted != 12.5 {
		t.Fatalf("Should load the latest snapshot, got %v.", loaded.TotalMinted)
	}
}
