package worker

// maxTxShareRequests represents the max number of pending-share tx's that
// can be queued before share requests are dropped.
const maxTxShareRequests = 100

// shareTxOperations handles sharing new accepted transactions with the
// known peers.
func (w *Worker) shareTxOperations() {
	w.evHandler("worker: shareTxOperations: G started")
	defer w.evHandler("worker: shareTxOperations: G completed")

	for {
		select {
		case req := <-w.txSharing:
			if !w.isShutdown() {
				w.runShareTxOperation(req)
			}
		case <-w.shut:
			w.evHandler("worker: shareTxOperations: received shut signal")
			return
		}
	}
}

// runShareTxOperation floods the transaction to the known peers, skipping
// the host it arrived from.
func (w *Worker) runShareTxOperation(req shareReq) {
	w.evHandler("worker: runShareTxOperation: started")
	defer w.evHandler("worker: runShareTxOperation: completed")

	w.state.NetSendTxToPeers(req.tx, req.originHost)
}
