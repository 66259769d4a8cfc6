// Package events implements the push hub: it tracks live client connections
// keyed by account identity and fans out ledger and social events to them.
package events

import (
	"errors"
	"sync"
	"time"
)

// queueDepth bounds the outbound queue per connection. Clients that fall
// behind lose the oldest events first; they are expected to reconcile with
// a full account re-fetch, not to rely on every intermediate event.
const queueDepth = 100

// saturationDeadline is how long a connection may stay saturated before the
// hub gives up and closes it.
const saturationDeadline = 10 * time.Second

// ErrHubFull is returned when the connection limit is reached.
var ErrHubFull = errors.New("too many connections")

// subscriber represents one live connection and its bounded event queue.
type subscriber struct {
	accountID string

	mu       sync.Mutex
	ch       chan string
	closed   bool
	satSince time.Time
}

// send queues the event, dropping the oldest entry on overflow. It reports
// false once the connection has stayed saturated past the deadline and has
// been closed.
func (sub *subscriber) send(event string, now time.Time) bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed {
		return false
	}

	select {
	case sub.ch <- event:
		sub.satSince = time.Time{}
		return true
	default:
	}

	if sub.satSince.IsZero() {
		sub.satSince = now
	}
	if now.Sub(sub.satSince) > saturationDeadline {
		sub.closed = true
		close(sub.ch)
		return false
	}

	// Drop the oldest queued event to make room for the newest.
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- event:
	default:
	}

	return true
}

// close shuts the subscriber's channel exactly once.
func (sub *subscriber) shut() {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// =============================================================================

// Hub maintains the mapping of connection ids to subscribers so goroutines
// serving websocket clients can register and receive events for their
// account.
type Hub struct {
	maxConns int

	mu        sync.RWMutex
	subs      map[string]*subscriber
	byAccount map[string]map[string]*subscriber
}

// New constructs a hub for registering and receiving events.
func New(maxConns int) *Hub {
	return &Hub{
		maxConns:  maxConns,
		subs:      make(map[string]*subscriber),
		byAccount: make(map[string]map[string]*subscriber),
	}
}

// Shutdown closes and removes all channels that were provided by the call
// to Acquire.
func (hub *Hub) Shutdown() {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for id, sub := range hub.subs {
		delete(hub.subs, id)
		sub.shut()
	}
	hub.byAccount = make(map[string]map[string]*subscriber)
}

// Acquire registers a connection for the specified account and returns the
// channel used to receive events. A closed channel means the hub evicted
// the connection and the client must resubscribe.
func (hub *Hub) Acquire(connID string, accountID string) (<-chan string, error) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if sub, exists := hub.subs[connID]; exists {
		return sub.ch, nil
	}

	if len(hub.subs) >= hub.maxConns {
		return nil, ErrHubFull
	}

	sub := &subscriber{
		accountID: accountID,
		ch:        make(chan string, queueDepth),
	}
	hub.subs[connID] = sub

	conns, exists := hub.byAccount[accountID]
	if !exists {
		conns = make(map[string]*subscriber)
		hub.byAccount[accountID] = conns
	}
	conns[connID] = sub

	return sub.ch, nil
}

// Release closes and removes the connection that was provided by the call
// to Acquire.
func (hub *Hub) Release(connID string) {
	hub.mu.Lock()
	sub, exists := hub.subs[connID]
	if exists {
		delete(hub.subs, connID)
		if conns, ok := hub.byAccount[sub.accountID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(hub.byAccount, sub.accountID)
			}
		}
	}
	hub.mu.Unlock()

	if exists {
		sub.shut()
	}
}

// SendTo delivers an event to every connection attached as the specified
// account. SendTo never blocks the producer.
func (hub *Hub) SendTo(accountID string, event string) {
	hub.mu.RLock()
	conns := make([]*subscriber, 0, len(hub.byAccount[accountID]))
	for _, sub := range hub.byAccount[accountID] {
		conns = append(conns, sub)
	}
	hub.mu.RUnlock()

	now := time.Now()
	for _, sub := range conns {
		sub.send(event, now)
	}
}

// Broadcast delivers an event to every registered connection without
// blocking the producer.
func (hub *Hub) Broadcast(event string) {
	hub.mu.RLock()
	conns := make([]*subscriber, 0, len(hub.subs))
	for _, sub := range hub.subs {
		conns = append(conns, sub)
	}
	hub.mu.RUnlock()

	now := time.Now()
	for _, sub := range conns {
		sub.send(event, now)
	}
}

// Count returns the number of live connections.
func (hub *Hub) Count() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	return len(hub.subs)
}
