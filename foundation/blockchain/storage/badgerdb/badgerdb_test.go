package badgerdb_test

import (
	"errors"
	"testing"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage/badgerdb"
)

func TestRoundTrip(t *testing.T) {
	store, err := badgerdb.New(t.TempDir())
	if err != nil {
		t.Fatalf("Should be able to open the database: %v", err)
	}
	defer store.Close()

	if _, err := store.Load(); !errors.Is(err, storage.ErrNoSnapshot) {
		t.Fatalf("Should report no snapshot on a fresh database, got %v.", err)
	}

	genesis := block.Genesis()
	snapshot := storage.Snapshot{
		Chain:       []block.Block{genesis},
		Balances:    map[string]float64{"alice": 6.25},
		TotalMinted: 6.25,
	}

	if err := store.Save(snapshot); err != nil {
		t.Fatalf("Should be able to save a snapshot: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Should be able to load the snapshot back: %v", err)
	}

	if len(loaded.Chain) != 1 || loaded.Chain[0].Hash != genesis.Hash {
		t.Fatal("Should load the same chain that was saved.")
	}
	if loaded.Balances["alice"] != 6.25 {
		t.Fatal("Should load the same balances that were saved.")
	}
}
