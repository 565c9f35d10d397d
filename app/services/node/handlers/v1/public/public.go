// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/swarmcoin/swarmcoin/business/web/errs"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/state"
	"github.com/swarmcoin/swarmcoin/foundation/events"
	"github.com/swarmcoin/swarmcoin/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a new transaction to the mempool and fans it out
// to the known peers.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitTx
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "sender", req.Sender, "recipient", req.Recipient, "amount", req.Amount)

	tx, err := h.State.SubmitTransaction(req.Sender, req.Recipient, req.Amount, true)
	if err != nil {
		if errors.Is(err, state.ErrPersistence) {
			return web.NewShutdownError(err.Error())
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string   `json:"status"`
		Tx     block.Tx `json:"tx"`
	}{
		Status: "transaction added to mempool",
		Tx:     tx,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine snapshots the mempool into a new block, performs the proof of work
// search on this request's goroutine, and commits the block. The search can
// run for a long time and is cancelled if the client goes away or a
// competing block for the same height is accepted.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req mineRequest
	if r.ContentLength > 0 {
		if err := web.Decode(r, &req); err != nil {
			return err
		}
	}

	h.Log.Infow("mine", "traceid", v.TraceID, "miner", req.Miner)

	b, err := h.State.MineNewBlock(ctx, req.Miner)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrPersistence):
			return web.NewShutdownError(err.Error())
		case ctx.Err() != nil || errors.Is(err, context.Canceled):
			return errs.NewTrusted(errors.New("mining cancelled"), http.StatusConflict)
		default:
			return errs.NewTrusted(err, http.StatusConflict)
		}
	}

	return web.Respond(ctx, w, b, http.StatusCreated)
}

// ProposeBlock takes a block received from a peer, validates it, and if
// that passes adds the block to the local chain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var b block.Block
	if err := web.Decode(r, &b); err != nil {
		return err
	}

	if err := h.State.ProcessPeerBlock(b); err != nil {
		if errors.Is(err, state.ErrPersistence) {
			return web.NewShutdownError(err.Error())
		}
		return errs.NewTrusted(errors.New("block not accepted"), http.StatusNotAcceptable)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the committed chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.RetrieveChain()

	resp := chainInfo{
		Height: len(chain),
		Blocks: chain,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StateInfo returns a summary of the full node state.
func (h Handlers) StateInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveLatestBlock()

	peers := make([]string, 0)
	for _, pr := range h.State.RetrieveKnownPeers() {
		peers = append(peers, pr.Host)
	}

	resp := stateInfo{
		Height:      h.State.RetrieveChainLength(),
		LatestHash:  latest.Hash,
		Balances:    h.State.RetrieveBalances(),
		TotalMinted: h.State.RetrieveTotalMinted(),
		PendingTx:   h.State.RetrieveMempool(),
		Peers:       peers,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balances returns the balance for one account or the full balance sheet.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	if account != "" {
		resp := balanceInfo{
			Account: account,
			Balance: h.State.RetrieveBalance(account),
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}

	return web.Respond(ctx, w, h.State.RetrieveBalances(), http.StatusOK)
}

// Peers returns the set of known peer endpoints.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	peers := make([]string, 0)
	for _, pr := range h.State.RetrieveKnownPeers() {
		peers = append(peers, pr.Host)
	}

	return web.Respond(ctx, w, peers, http.StatusOK)
}

// RegisterPeer adds a peer endpoint directly to the peer set.
func (h Handlers) RegisterPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req registerPeer
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	added := h.State.AddKnownPeer(req.Host)

	resp := struct {
		Status string `json:"status"`
		Added  bool   `json:"added"`
	}{
		Status: "ok",
		Added:  added,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
