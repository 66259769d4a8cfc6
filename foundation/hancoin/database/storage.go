package database

import "errors"

// ErrNoSnapshot is returned by ReadSnapshot when no snapshot has been
// written yet.
var ErrNoSnapshot = errors.New("no snapshot exists")

// Storage interface represents the behavior required to be implemented by
// any package providing durable support for the transaction log and
// account snapshots.
//
// Append must be write-ahead durable: the entry is synced to stable media
// before the call returns. Offsets are sequential starting at 1. The log is
// never truncated; snapshots only let startup replay skip a prefix.
type Storage interface {
	Append(tx LogTx) (offset uint64, err error)
	ForEach(afterOffset uint64) Iterator
	WriteSnapshot(snapshot Snapshot) error
	ReadSnapshot() (Snapshot, error)
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the log entries.
type Iterator interface {
	Next() (LogEntry, error)
	Done() bool
}

// LogEntry pairs a transaction with its position in the durable log.
type LogEntry struct {
	Offset uint64 `json:"offset"`
	Tx     LogTx  `json:"tx"`
}

// Snapshot is the durable projection of the full ledger at a point in the
// log. Replaying log entries after LogOffset on top of a snapshot
// reproduces the exact ledger state.
type Snapshot struct {
	LogOffset uint64                `json:"log_offset"`
	Issued    uint64                `json:"issued"`
	Accounts  map[AccountID]Account `json:"accounts"`
}
