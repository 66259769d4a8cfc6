package worker

// snapshotOperations writes periodic ledger checkpoints so a restart only
// replays the log tail.
func (w *Worker) snapshotOperations() {
	w.evHandler("worker: snapshotOperations: G started")
	defer w.evHandler("worker: snapshotOperations: G completed")

	for {
		select {
		case <-w.snapshotTicker.C:
			if !w.isShutdown() {
				w.runSnapshotOperation()
			}
		case <-w.shut:
			w.evHandler("worker: snapshotOperations: received shut signal")
			return
		}
	}
}

// runSnapshotOperation writes a single checkpoint.
func (w *Worker) runSnapshotOperation() {
	w.evHandler("worker: runSnapshotOperation: started")
	defer w.evHandler("worker: runSnapshotOperation: completed")

	if err := w.state.Snapshot(); err != nil {
		w.evHandler("worker: runSnapshotOperation: ERROR: %s", err)
	}
}
