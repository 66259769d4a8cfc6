// Package memory implements the ability to read and write the transaction
// log and snapshots in memory. Used for testing and for running short-lived
// nodes that don't need durability.
package memory

import (
	"io"
	"sync"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
)

// Memory represents the storage implementation for keeping the transaction
// log and snapshot in memory using a slice. This implements the
// database.Storage interface.
type Memory struct {
	mu          sync.RWMutex
	entries     []database.LogEntry
	snapshot    database.Snapshot
	hasSnapshot bool
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Append stores the transaction at the end of the in-memory log.
func (m *Memory) Append(tx database.LogTx) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := database.LogEntry{
		Offset: uint64(len(m.entries)) + 1,
		Tx:     tx,
	}
	m.entries = append(m.entries, entry)

	return entry.Offset, nil
}

// WriteSnapshot keeps a copy of the checkpoint in memory.
func (m *Memory) WriteSnapshot(snapshot database.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make(map[database.AccountID]database.Account, len(snapshot.Accounts))
	for accountID, account := range snapshot.Accounts {
		accounts[accountID] = account
	}
	snapshot.Accounts = accounts

	m.snapshot = snapshot
	m.hasSnapshot = true

	return nil
}

// ReadSnapshot returns the stored checkpoint if one exists.
func (m *Memory) ReadSnapshot() (database.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasSnapshot {
		return database.Snapshot{}, database.ErrNoSnapshot
	}

	return m.snapshot, nil
}

// ForEach returns an iterator to walk through the log entries after the
// specified offset.
func (m *Memory) ForEach(afterOffset uint64) database.Iterator {
	m.mu.RLock()
	entries := make([]database.LogEntry, len(m.entries))
	copy(entries, m.entries)
	m.mu.RUnlock()

	return &MemoryIterator{entries: entries, afterOffset: afterOffset}
}

// Reset clears the log and snapshot.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.snapshot = database.Snapshot{}
	m.hasSnapshot = false

	return nil
}

// =============================================================================

// MemoryIterator represents the iteration implementation for walking through
// the in-memory log. This implements the database.Iterator interface.
type MemoryIterator struct {
	entries     []database.LogEntry
	afterOffset uint64
	current     int
	eol         bool
}

// Next retrieves the next log entry past the configured offset.
func (mi *MemoryIterator) Next() (database.LogEntry, error) {
	for mi.current < len(mi.entries) {
		entry := mi.entries[mi.current]
		mi.current++

		if entry.Offset <= mi.afterOffset {
			continue
		}

		return entry, nil
	}

	mi.eol = true

	return database.LogEntry{}, io.EOF
}

// Done returns the end of log value.
func (mi *MemoryIterator) Done() bool {
	return mi.eol
}
