package public_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/swarmcoin/swarmcoin/app/services/node/handlers"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/state"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/storage/memory"
	"github.com/swarmcoin/swarmcoin/foundation/events"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *state.State) {
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

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, st
}

func TestAPI(t *testing.T) {
	srv, st := newTestServer(t)

	t.Run("reject unfunded tx", func(t *testing.T) {
		body := bytes.NewBufferString(`{"sender":"alice","recipient":"bob","amount":10}`)
		resp, err := http.Post(srv.URL+"/v1/tx", "application/json", body)
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Should reject an unfunded transaction with 400, got %d.", resp.StatusCode)
		}
	})

	t.Run("reject invalid tx", func(t *testing.T) {
		body := bytes.NewBufferString(`{"sender":"","recipient":"bob","amount":10}`)
		resp, err := http.Post(srv.URL+"/v1/tx", "application/json", body)
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Should reject a transaction without a sender with 400, got %d.", resp.StatusCode)
		}
	})

	t.Run("mine", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/v1/mine", "application/json", bytes.NewBufferString(`{}`))
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Should mine a block with 201, got %d.", resp.StatusCode)
		}

		var b block.Block
		if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
			t.Fatalf("Should decode the mined block: %v", err)
		}
		if b.Index != 1 {
			t.Fatalf("Should mine block 1, got %d.", b.Index)
		}
	})

	t.Run("submit funded tx", func(t *testing.T) {
		body := bytes.NewBufferString(`{"sender":"miner","recipient":"bob","amount":5}`)
		resp, err := http.Post(srv.URL+"/v1/tx", "application/json", body)
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Should accept a funded transaction with 200, got %d.", resp.StatusCode)
		}
	})

	t.Run("balance", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/balances/miner")
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp.Body.Close()

		var bal struct {
			Account string  `json:"account"`
			Balance float64 `json:"balance"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&bal); err != nil {
			t.Fatalf("Should decode the balance: %v", err)
		}
		if bal.Balance != 6.25 {
			t.Fatalf("Should report the mining reward, got %v.", bal.Balance)
		}
	})

	t.Run("chain", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/chain")
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp.Body.Close()

		var info struct {
			Height int           `json:"height"`
			Blocks []block.Block `json:"blocks"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			t.Fatalf("Should decode the chain: %v", err)
		}
		if info.Height != 2 || len(info.Blocks) != 2 {
			t.Fatalf("Should report two blocks, got %d.", info.Height)
		}
	})

	t.Run("propose block", func(t *testing.T) {
		head := st.RetrieveLatestBlock()
		nb := block.New(head.Index+1, head.Hash, nil)
		if err := nb.Mine(context.Background(), 1); err != nil {
			t.Fatalf("Should be able to mine the block: %v", err)
		}

		data, err := json.Marshal(nb)
		if err != nil {
			t.Fatalf("Should be able to encode the block: %v", err)
		}

		resp, err := http.Post(srv.URL+"/v1/block", "application/json", bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Should accept a valid block with 200, got %d.", resp.StatusCode)
		}

		resp2, err := http.Post(srv.URL+"/v1/block", "application/json", bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusNotAcceptable {
			t.Fatalf("Should reject a replayed block with 406, got %d.", resp2.StatusCode)
		}
	})

	t.Run("peers", func(t *testing.T) {
		body := bytes.NewBufferString(`{"host":"localhost:5001"}`)
		resp, err := http.Post(srv.URL+"/v1/peers", "application/json", body)
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		resp.Body.Close()

		resp, err = http.Get(srv.URL + "/v1/peers")
		if err != nil {
			t.Fatalf("Should be able to call the endpoint: %v", err)
		}
		defer resp.Body.Close()

		var peers []string
		if err := json.NewDecoder(resp.Body).Decode(&peers); err != nil {
			t.Fatalf("Should decode the peers: %v", err)
		}
		if len(peers) != 1 || peers[0] != "localhost:5001" {
			t.Fatalf("Should list the registered peer, got %v.", peers)
		}
	})
}
