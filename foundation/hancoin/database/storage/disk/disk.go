// Package disk implements the ability to read and write the transaction log
// and snapshots on disk. The log is a sequential file of JSON documents, one
// per line, synced on every append.
package disk

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
)

const (
	logFile      = "tx.log"
	snapshotFile = "snapshot.json"
)

// Disk represents the storage implementation for reading and storing the
// transaction log and snapshots in files on disk. This implements the
// database.Storage interface.
type Disk struct {
	dbPath string

	mu     sync.Mutex
	file   *os.File
	offset uint64
}

// New constructs a Disk value for use, creating the directory and opening
// the log for appending. The current offset is recovered by scanning the
// existing log entries; a torn tail left by a crash mid-append is truncated
// so new entries never share a line with the partial write.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	path := filepath.Join(dbPath, logFile)

	offset, validLen, err := recoverLog(path)
	if err != nil {
		return nil, err
	}
	if validLen >= 0 {
		if err := os.Truncate(path, validLen); err != nil {
			return nil, err
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	return &Disk{
		dbPath: dbPath,
		file:   file,
		offset: offset,
	}, nil
}

// recoverLog reads the log and returns the highest valid offset and the
// byte length of the valid prefix. A length of -1 means the file doesn't
// exist or needs no truncation. An entry counts as valid only when it both
// parses and carries its terminating newline.
func recoverLog(path string) (offset uint64, validLen int64, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, -1, nil
		}
		return 0, -1, err
	}

	var pos int64
	rest := content
	for len(rest) > 0 {
		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			// The final line never got its newline; drop it.
			return offset, pos, nil
		}

		line := rest[:nl]
		if len(line) > 0 {
			var entry database.LogEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				return offset, pos, nil
			}
			offset = entry.Offset
		}

		pos += int64(nl) + 1
		rest = rest[nl+1:]
	}

	return offset, -1, nil
}

// Close releases the underlying log file.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.file.Close()
}

// Append writes the transaction to the end of the log and syncs the file
// before returning. The assigned offset is durable once the call returns.
func (d *Disk) Append(tx database.LogTx) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := database.LogEntry{
		Offset: d.offset + 1,
		Tx:     tx,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	if _, err := d.file.Write(data); err != nil {
		return 0, err
	}

	if err := d.file.Sync(); err != nil {
		return 0, err
	}

	d.offset = entry.Offset

	return entry.Offset, nil
}

// WriteSnapshot stores a full checkpoint of the account table. The document
// is written to a scratch file and renamed so a crash mid-write never
// leaves a torn snapshot behind.
func (d *Disk) WriteSnapshot(snapshot database.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := filepath.Join(d.dbPath, snapshotFile+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, filepath.Join(d.dbPath, snapshotFile))
}

// ReadSnapshot loads the latest checkpoint from disk.
func (d *Disk) ReadSnapshot() (database.Snapshot, error) {
	content, err := os.ReadFile(filepath.Join(d.dbPath, snapshotFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.Snapshot{}, database.ErrNoSnapshot
		}
		return database.Snapshot{}, err
	}

	var snapshot database.Snapshot
	if err := json.Unmarshal(content, &snapshot); err != nil {
		return database.Snapshot{}, err
	}

	return snapshot, nil
}

// ForEach returns an iterator to walk through the log entries after the
// specified offset.
func (d *Disk) ForEach(afterOffset uint64) database.Iterator {
	f, err := os.Open(filepath.Join(d.dbPath, logFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// A missing log is an empty log.
			return &DiskIterator{eol: true}
		}
		return &DiskIterator{err: err}
	}

	return &DiskIterator{
		file:        f,
		scanner:     bufio.NewScanner(f),
		afterOffset: afterOffset,
	}
}

// Reset will clear out the log and snapshot on disk.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.file.Close()

	if err := os.Remove(filepath.Join(d.dbPath, logFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(filepath.Join(d.dbPath, snapshotFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	file, err := os.OpenFile(filepath.Join(d.dbPath, logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}

	d.file = file
	d.offset = 0

	return nil
}

// =============================================================================

// DiskIterator represents the iteration implementation for walking through
// and reading log entries on disk. This implements the database.Iterator
// interface. A failure is sticky and leaves Done false so the caller's loop
// body gets to observe the error.
type DiskIterator struct {
	file        *os.File
	scanner     *bufio.Scanner
	afterOffset uint64
	err         error
	eol         bool
}

// Next retrieves the next log entry past the configured offset.
func (di *DiskIterator) Next() (database.LogEntry, error) {
	if di.err != nil {
		return database.LogEntry{}, di.err
	}
	if di.eol {
		return database.LogEntry{}, io.EOF
	}

	for di.scanner.Scan() {
		line := di.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry database.LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			di.fail(fmt.Errorf("corrupt log entry: %w", err))
			return database.LogEntry{}, di.err
		}

		if entry.Offset <= di.afterOffset {
			continue
		}

		return entry, nil
	}

	if err := di.scanner.Err(); err != nil {
		di.fail(err)
		return database.LogEntry{}, di.err
	}

	di.eol = true
	di.file.Close()

	return database.LogEntry{}, io.EOF
}

// Done returns the end of log value.
func (di *DiskIterator) Done() bool {
	return di.eol
}

func (di *DiskIterator) fail(err error) {
	di.err = err
	if di.file != nil {
		di.file.Close()
	}
}
