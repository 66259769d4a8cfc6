// Package state is the core API for the node and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/hancoin9/hancoin/foundation/events"
	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/faucet"
	"github.com/hancoin9/hancoin/foundation/hancoin/genesis"
	"github.com/hancoin9/hancoin/foundation/hancoin/peer"
	"github.com/hancoin9/hancoin/foundation/hancoin/pending"
	"github.com/hancoin9/hancoin/foundation/hancoin/seen"
)

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of transactions and synchronization.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for digest exchange, transaction sharing and
// pending maintenance.
type Worker interface {
	Shutdown()
	SignalShareTx(tx database.LogTx, originHost string)
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	Host       string
	Genesis    genesis.Genesis
	Storage    database.Storage
	KnownPeers *peer.PeerSet
	Hub        *events.Hub
	EvHandler  EventHandler
}

// State manages the account ledger and its synchronization with the network.
type State struct {
	host      string
	genesis   genesis.Genesis
	evHandler EventHandler

	knownPeers *peer.PeerSet
	db         *database.Database
	pendingTxs *pending.Pending
	seenCache  *seen.Cache
	faucet     *faucet.Faucet
	hub        *events.Hub

	// accept serializes the validate/append/apply pipeline per nonce
	// sequence so the write-ahead log never records a transaction the
	// ledger then refuses.
	acceptMu sync.Mutex
	accept   map[database.AccountID]*sync.Mutex

	Worker Worker
}

// New constructs a new node state for ledger management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Open the database, replaying any durable history into memory.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		host:      cfg.Host,
		genesis:   cfg.Genesis,
		evHandler: ev,

		knownPeers: cfg.KnownPeers,
		db:         db,
		pendingTxs: pending.New(),
		seenCache:  seen.New(seenTTL, seenMaxSize),
		faucet:     faucet.New(cfg.Genesis, db),
		hub:        cfg.Hub,

		accept: make(map[database.AccountID]*sync.Mutex),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database file is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all synchronization activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================

// RetrieveHost returns a copy of the host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// AddKnownPeer provides the ability to add a new peer to the known peer list.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	return s.knownPeers.Add(peer)
}

// RemoveKnownPeer provides the ability to remove a peer from the known peer
// list.
func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}

// Snapshot writes a checkpoint of the ledger to storage so startup replay
// can skip the log prefix it covers.
func (s *State) Snapshot() error {
	return s.db.Snapshot()
}

// =============================================================================

// acceptLock returns the mutex serializing acceptance for the nonce
// sequence owner.
func (s *State) acceptLock(accountID database.AccountID) *sync.Mutex {
	s.acceptMu.Lock()
	defer s.acceptMu.Unlock()

	mu, exists := s.accept[accountID]
	if !exists {
		mu = &sync.Mutex{}
		s.accept[accountID] = mu
	}

	return mu
}
