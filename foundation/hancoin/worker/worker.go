// Package worker implements the background synchronization for the node:
// digest exchange with peers, transaction share fan-out and maintenance of
// the pending buffer.
package worker

import (
	"sync"
	"time"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/state"
)

// digestInterval represents the interval for exchanging digests with peers
// and updating the known peer list.
const digestInterval = 30 * time.Second

// pendingInterval represents the interval for expiring held transactions
// and requesting gap fills.
const pendingInterval = 15 * time.Second

// snapshotInterval represents the interval for writing ledger checkpoints.
const snapshotInterval = 5 * time.Minute

// =============================================================================

// shareReq pairs a transaction with the host it arrived from so the flood
// skips the origin.
type shareReq struct {
	tx         database.LogTx
	originHost string
}

// Worker manages the synchronization workflows for the node.
type Worker struct {
	state          *state.State
	wg             sync.WaitGroup
	digestTicker   *time.Ticker
	pendingTicker  *time.Ticker
	snapshotTicker *time.Ticker
	shut           chan struct{}
	txSharing      chan shareReq
	evHandler      state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) {
	w := Worker{
		state:          st,
		digestTicker:   time.NewTicker(digestInterval),
		pendingTicker:  time.NewTicker(pendingInterval),
		snapshotTicker: time.NewTicker(snapshotInterval),
		shut:           make(chan struct{}),
		txSharing:      make(chan shareReq, maxTxShareRequests),
		evHandler:      evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	// Load the set of operations we need to run.
	operations := []func(){
		w.digestOperations,
		w.shareTxOperations,
		w.pendingOperations,
		w.snapshotOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop tickers")
	w.digestTicker.Stop()
	w.pendingTicker.Stop()
	w.snapshotTicker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalShareTx signals a share transaction operation. If maxTxShareRequests
// signals exist in the channel, this transaction won't be shared; peers will
// pick it up in the next digest exchange.
func (w *Worker) SignalShareTx(tx database.LogTx, originHost string) {
	select {
	case w.txSharing <- shareReq{tx: tx, originHost: originHost}:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transaction won't be shared")
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
