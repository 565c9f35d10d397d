// Package worker implements the background fan-out of transactions and
// blocks to the known peers. Sends are best effort, one attempt per peer,
// a failure is logged and never retried and never evicts the peer.
package worker

import (
	"sync"

	"github.com/swarmcoin/swarmcoin/foundation/blockchain/block"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/peer"
	"github.com/swarmcoin/swarmcoin/foundation/blockchain/state"
)

// maxShareRequests represents the max number of pending share requests that
// can be outstanding before new requests are dropped. To keep this simple,
// a buffered channel of this arbitrary number is being used.
const maxShareRequests = 100

// Sender interface represents the behavior required to be implemented by a
// transport binding to deliver one message to one peer.
type Sender interface {
	SendTx(pr peer.Peer, tx block.Tx) error
	SendBlock(pr peer.Peer, b block.Block) error
}

// Worker manages the sharing goroutines for the node.
type Worker struct {
	state        *state.State
	sender       Sender
	wg           sync.WaitGroup
	shut         chan struct{}
	txSharing    chan block.Tx
	blockSharing chan block.Block
	evHandler    state.EventHandler
}

// Run creates the worker, registers it with the state, and starts the
// sharing goroutines.
func Run(st *state.State, sender Sender, evHandler state.EventHandler) {
	w := Worker{
		state:        st,
		sender:       sender,
		shut:         make(chan struct{}),
		txSharing:    make(chan block.Tx, maxShareRequests),
		blockSharing: make(chan block.Block, maxShareRequests),
		evHandler:    evHandler,
	}

	// Register this worker with the state so the engine can signal sharing.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.shareTxOperations,
		w.shareBlockOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	close(w.shut)
	w.wg.Wait()
}

// =============================================================================

// SignalShareTx queues up a share transaction operation. If maxShareRequests
// signals exist in the channel, the request is dropped.
func (w *Worker) SignalShareTx(tx block.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, tx won't be shared")
	}
}

// SignalShareBlock queues up a share block operation. If maxShareRequests
// signals exist in the channel, the request is dropped.
func (w *Worker) SignalShareBlock(b block.Block) {
	select {
	case w.blockSharing <- b:
		w.evHandler("worker: SignalShareBlock: share signaled")
	default:
		w.evHandler("worker: SignalShareBlock: queue full, block won't be shared")
	}
}

// =============================================================================

// shareTxOperations handles sharing new transactions.
func (w *Worker) shareTxOperations() {
	w.evHandler("worker: shareTxOperations: G started")
	defer w.evHandler("worker: shareTxOperations: G completed")

	for {
		select {
		case tx := <-w.txSharing:
			if !w.isShutdown() {
				w.runShareTxOperation(tx)
			}
		case <-w.shut:
			w.evHandler("worker: shareTxOperations: received shut signal")
			return
		}
	}
}

// shareBlockOperations handles sharing newly mined blocks.
func (w *Worker) shareBlockOperations() {
	w.evHandler("worker: shareBlockOperations: G started")
	defer w.evHandler("worker: shareBlockOperations: G completed")

	for {
		select {
		case b := <-w.blockSharing:
			if !w.isShutdown() {
				w.runShareBlockOperation(b)
			}
		case <-w.shut:
			w.evHandler("worker: shareBlockOperations: received shut signal")
			return
		}
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// =============================================================================

// runShareTxOperation sends the transaction to each known peer. Failures
// are isolated per peer.
func (w *Worker) runShareTxOperation(tx block.Tx) {
	w.evHandler("worker: runShareTxOperation: started")
	defer w.evHandler("worker: runShareTxOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {
		if err := w.sender.SendTx(pr, tx); err != nil {
			w.evHandler("worker: runShareTxOperation: WARNING: %s: %s", pr.Host, err)
		}
	}
}

// runShareBlockOperation sends the block to each known peer. Failures are
// isolated per peer.
func (w *Worker) runShareBlockOperation(b block.Block) {
	w.evHandler("worker: runShareBlockOperation: started")
	defer w.evHandler("worker: runShareBlockOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {
		if err := w.sender.SendBlock(pr, b); err != nil {
			w.evHandler("worker: runShareBlockOperation: WARNING: %s: %s", pr.Host, err)
		}
	}
}
