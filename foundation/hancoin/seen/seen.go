// Package seen maintains a bounded, time-evicted set of transaction
// identities. Flooding with this dedup set caps memory and stops rebroadcast
// storms without any spanning-tree maintenance.
package seen

import (
	"sync"
	"time"
)

// Cache represents the set of recently observed content hashes.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	items   map[string]time.Time
}

// New constructs a cache that forgets entries after ttl and never holds
// more than maxSize of them.
func New(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[string]time.Time),
	}
}

// Seen reports whether the hash was observed within the ttl. A true result
// means the transaction was processed recently and should not be processed
// or rebroadcast again.
func (c *Cache) Seen(hash string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, exists := c.items[hash]
	return exists && now.Sub(at) <= c.ttl
}

// Add records the hash.
func (c *Cache) Add(hash string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict lazily: expired entries first, then the oldest entries if the
	// size bound is still exceeded.
	if len(c.items) >= c.maxSize {
		for h, at := range c.items {
			if now.Sub(at) > c.ttl {
				delete(c.items, h)
			}
		}
		for len(c.items) >= c.maxSize {
			var oldestHash string
			var oldestAt time.Time
			for h, at := range c.items {
				if oldestHash == "" || at.Before(oldestAt) {
					oldestHash, oldestAt = h, at
				}
			}
			delete(c.items, oldestHash)
		}
	}

	c.items[hash] = now
}

// Remove forgets the hash so a future delivery is processed again. Used when
// a held transaction is dropped and must be accepted on redelivery.
func (c *Cache) Remove(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, hash)
}

// Len returns the current number of tracked hashes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}
