package worker

import (
	"github.com/hancoin9/hancoin/foundation/hancoin/peer"
)

// digestOperations runs the digest exchange on a timer.
func (w *Worker) digestOperations() {
	w.evHandler("worker: digestOperations: G started")
	defer w.evHandler("worker: digestOperations: G completed")

	for {
		select {
		case <-w.digestTicker.C:
			if !w.isShutdown() {
				w.runDigestOperation()
			}
		case <-w.shut:
			w.evHandler("worker: digestOperations: received shut signal")
			return
		}
	}
}

// runDigestOperation contacts each known peer, compares nonce digests, and
// pulls any transactions this node is missing.
func (w *Worker) runDigestOperation() {
	w.evHandler("worker: runDigestOperation: started")
	defer w.evHandler("worker: runDigestOperation: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {
		w.exchangeWithPeer(pr)
	}
}

// exchangeWithPeer performs a single digest exchange with the specified peer.
func (w *Worker) exchangeWithPeer(pr peer.Peer) {
	peerStatus, err := w.state.NetRequestPeerStatus(pr)
	if err != nil {
		w.evHandler("worker: exchangeWithPeer: requestPeerStatus: %s: ERROR: %s", pr.Host, err)

		// A peer that can't be reached is removed so the set doesn't fill
		// with dead hosts. It will be re-added when it announces itself.
		w.state.RemoveKnownPeer(pr)
		return
	}

	// Add any new peers to the known peer list.
	w.addNewPeers(peerStatus.KnownPeers)

	local := w.state.RetrieveDigest()

	// Pull transfer sequences where the peer has consumed nonces we haven't.
	for accountID, peerNonce := range peerStatus.Nonces {
		localNonce := local.Nonces[accountID]
		if peerNonce <= localNonce {
			continue
		}

		w.evHandler("worker: exchangeWithPeer: %s: account %s: behind %d..%d", pr.Host, accountID, localNonce, peerNonce-1)

		if err := w.state.NetRequestTxRange(pr, accountID, localNonce, peerNonce-1, false); err != nil {
			w.evHandler("worker: exchangeWithPeer: requestTxRange: %s: ERROR: %s", pr.Host, err)
		}
	}

	// Same for faucet sequences.
	for accountID, peerNonce := range peerStatus.FaucetNonces {
		localNonce := local.FaucetNonces[accountID]
		if peerNonce <= localNonce {
			continue
		}

		w.evHandler("worker: exchangeWithPeer: %s: account %s: faucet behind %d..%d", pr.Host, accountID, localNonce, peerNonce-1)

		if err := w.state.NetRequestTxRange(pr, accountID, localNonce, peerNonce-1, true); err != nil {
			w.evHandler("worker: exchangeWithPeer: requestTxRange: faucet: %s: ERROR: %s", pr.Host, err)
		}
	}
}

// addNewPeers takes the set of known peers from a peer status response and
// adds any this node doesn't know about, announcing itself to each.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	w.evHandler("worker: addNewPeers: started")
	defer w.evHandler("worker: addNewPeers: completed")

	for _, pr := range knownPeers {

		// Don't add this running node to the known peer list.
		if pr.Match(w.state.RetrieveHost()) {
			continue
		}

		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: addNewPeers: add peer nodes: adding peer-node %s", pr.Host)

			if err := w.state.NetAnnounceSelf(pr); err != nil {
				w.evHandler("worker: addNewPeers: announce: %s: ERROR: %s", pr.Host, err)
			}
		}
	}
}
