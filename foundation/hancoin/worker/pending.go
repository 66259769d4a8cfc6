package worker

import "time"

// pendingOperations maintains the pending buffer: expires stale held
// transactions and asks peers for the transactions that would fill the
// remaining gaps.
func (w *Worker) pendingOperations() {
	w.evHandler("worker: pendingOperations: G started")
	defer w.evHandler("worker: pendingOperations: G completed")

	for {
		select {
		case <-w.pendingTicker.C:
			if !w.isShutdown() {
				w.runPendingOperation()
			}
		case <-w.shut:
			w.evHandler("worker: pendingOperations: received shut signal")
			return
		}
	}
}

// runPendingOperation performs one maintenance pass over the pending buffer.
func (w *Worker) runPendingOperation() {
	w.evHandler("worker: runPendingOperation: started")
	defer w.evHandler("worker: runPendingOperation: completed")

	if n := w.state.ExpirePending(time.Now()); n > 0 {
		w.evHandler("worker: runPendingOperation: expired %d stale pending tx(s)", n)
	}

	gaps := w.state.PendingGaps()
	if len(gaps) == 0 {
		return
	}

	// Ask each known peer for the missing ranges. The accept path discards
	// anything we receive more than once.
	local := w.state.RetrieveDigest()

	for _, pr := range w.state.RetrieveKnownPeers() {
		for accountID, lowestHeld := range gaps {
			fromNonce := local.Nonces[accountID]
			if lowestHeld == 0 || fromNonce >= lowestHeld {
				continue
			}

			if err := w.state.NetRequestTxRange(pr, accountID, fromNonce, lowestHeld-1, false); err != nil {
				w.evHandler("worker: runPendingOperation: requestTxRange: %s: ERROR: %s", pr.Host, err)
			}
		}
	}
}
