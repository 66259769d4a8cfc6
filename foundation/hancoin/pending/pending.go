// Package pending maintains the buffer of nonce-gapped transactions. A
// transaction whose nonce is ahead of the sender's next expected value is
// held here until the gap-filling predecessors arrive.
package pending

import (
	"sort"
	"sync"
	"time"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
)

// Bounds applied per sequence identity so a flood of gapped transactions
// can't grow memory without limit. The entry held longest is dropped first
// since the sender can always retransmit.
const (
	maxTxsPerAccount   = 32
	maxBytesPerAccount = 64 * 1024
)

// held is a buffered transaction plus the moment it arrived, so stale
// entries can be expired.
type held struct {
	tx   database.LogTx
	seen time.Time
}

// Pending represents the buffer of deferred transactions organized by the
// identity that owns the nonce sequence.
type Pending struct {
	mu  sync.Mutex
	buf map[database.AccountID][]held
}

// New constructs a pending buffer for deferred transactions.
func New() *Pending {
	return &Pending{
		buf: make(map[database.AccountID][]held),
	}
}

// sequenceID returns the identity owning the transaction's nonce sequence.
// Faucet claims sequence under the recipient.
func sequenceID(tx database.LogTx) database.AccountID {
	if tx.IsFaucet() {
		return tx.ToID
	}
	return tx.FromID
}

// Add buffers the transaction, keeping each identity's entries sorted by
// nonce and deduplicated by content hash. It returns the transactions
// dropped to stay within bounds so the caller can forget their identities.
func (p *Pending) Add(tx database.LogTx, now time.Time) []database.LogTx {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := sequenceID(tx)
	entries := p.buf[id]

	for _, h := range entries {
		if h.tx.Equals(tx) {
			return nil
		}
	}

	entries = append(entries, held{tx: tx, seen: now})
	sort.Slice(entries, func(i, j int) bool { return entries[i].tx.Nonce < entries[j].tx.Nonce })

	// Enforce the count and byte bounds dropping the longest-held entry
	// first.
	var dropped []database.LogTx
	for len(entries) > maxTxsPerAccount || bytesOf(entries) > maxBytesPerAccount {
		oldest := 0
		for i := 1; i < len(entries); i++ {
			if entries[i].seen.Before(entries[oldest].seen) {
				oldest = i
			}
		}
		dropped = append(dropped, entries[oldest].tx)
		entries = append(entries[:oldest], entries[oldest+1:]...)
	}

	p.buf[id] = entries

	return dropped
}

// NextReady removes and returns the buffered transaction whose nonce equals
// the identity's next expected value, if one is held. Faucet claims and
// transfers sequence independently, so the caller states which sequence it
// is advancing.
func (p *Pending) NextReady(id database.AccountID, nonce uint64, faucet bool) (database.LogTx, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.buf[id]
	for i, h := range entries {
		if h.tx.Nonce != nonce || h.tx.IsFaucet() != faucet {
			continue
		}

		p.buf[id] = append(entries[:i], entries[i+1:]...)
		if len(p.buf[id]) == 0 {
			delete(p.buf, id)
		}

		return h.tx, true
	}

	return database.LogTx{}, false
}

// Copy returns the buffered transactions for the identity in nonce order.
func (p *Pending) Copy(id database.AccountID) []database.LogTx {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.buf[id]
	txs := make([]database.LogTx, len(entries))
	for i, h := range entries {
		txs[i] = h.tx
	}

	return txs
}

// Gaps returns, for every identity with buffered transactions, the lowest
// nonce currently held. The synchronizer uses this to request the missing
// predecessors from peers.
func (p *Pending) Gaps() map[database.AccountID]uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	gaps := make(map[database.AccountID]uint64, len(p.buf))
	for id, entries := range p.buf {
		if len(entries) > 0 {
			gaps[id] = entries[0].tx.Nonce
		}
	}

	return gaps
}

// Expire removes transactions buffered longer than maxAge and returns them.
// A dropped gap must be refilled by a future resync, so the caller forgets
// the dropped identities to let that redelivery through.
func (p *Pending) Expire(now time.Time, maxAge time.Duration) []database.LogTx {
	p.mu.Lock()
	defer p.mu.Unlock()

	var dropped []database.LogTx
	for id, entries := range p.buf {
		keep := entries[:0]
		for _, h := range entries {
			if now.Sub(h.seen) <= maxAge {
				keep = append(keep, h)
				continue
			}
			dropped = append(dropped, h.tx)
		}

		if len(keep) == 0 {
			delete(p.buf, id)
			continue
		}
		p.buf[id] = keep
	}

	return dropped
}

// Count returns the total number of buffered transactions.
func (p *Pending) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var count int
	for _, entries := range p.buf {
		count += len(entries)
	}

	return count
}

// bytesOf sums the approximate wire size of the entries.
func bytesOf(entries []held) int {
	var size int
	for _, h := range entries {
		size += h.tx.Size()
	}
	return size
}
