package worker

// Sync updates the node before anything else needs to be done. It announces
// this node to the configured peers and performs a first digest exchange so
// the node starts serving from a converged ledger.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {
		if err := w.state.NetAnnounceSelf(pr); err != nil {
			w.evHandler("worker: sync: announce: %s: ERROR: %s", pr.Host, err)
		}

		w.exchangeWithPeer(pr)
	}
}
