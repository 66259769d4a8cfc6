// Package peer maintains the peer related information such as the set
// of known peers and the digest exchanged between nodes.
package peer

import (
	"sync"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
)

// Peer represents information about a node in the network.
type Peer struct {
	Host string
}

// New constructs a new info value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// Digest is the compact summary of a node's ledger progress: the applied
// nonce per identity, both transfer and faucet sequences, plus the total
// issuance. Comparing digests detects divergence without transferring full
// history.
type Digest struct {
	Nonces       map[database.AccountID]uint64 `json:"nonces"`
	FaucetNonces map[database.AccountID]uint64 `json:"faucet_nonces"`
	Issued       uint64                        `json:"issued"`
}

// PeerStatus represents information about the status of any given peer. The
// digest fields are promoted so the wire shape stays flat.
type PeerStatus struct {
	Digest
	KnownPeers []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Copy returns a list of the known peers, excluding the specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	return peers
}
