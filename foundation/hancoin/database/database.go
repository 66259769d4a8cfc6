// Package database handles all the lower level support for maintaining the
// account ledger in memory and its durable projection on disk.
package database

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hancoin9/hancoin/foundation/hancoin/genesis"
)

// historyDepth is the number of recently applied transactions retained per
// account. The window serves account history queries and lets the validator
// tell a retransmission from a conflicting transaction.
const historyDepth = 64

// accountRecord is the unit of locking. Two transactions touching different
// accounts never contend; two touching the same account are strictly
// ordered by the record mutex.
type accountRecord struct {
	mu      sync.Mutex
	account Account
	history []LogTx
}

// appendHistory records an applied transaction, oldest entries dropping off.
// Callers must hold the record mutex.
func (rec *accountRecord) appendHistory(tx LogTx) {
	rec.history = append(rec.history, tx)
	if len(rec.history) > historyDepth {
		rec.history = rec.history[len(rec.history)-historyDepth:]
	}
}

// Database manages the authoritative account state. Every mutation flows
// through ApplyTransaction; the write-ahead Append must succeed first.
type Database struct {
	genesis   genesis.Genesis
	storage   Storage
	evHandler func(v string, args ...any)

	mu      sync.RWMutex
	records map[AccountID]*accountRecord

	// snapMu quiesces in-memory mutation while a snapshot copies the
	// ledger. Applies hold the read side only for the in-memory step,
	// never across I/O.
	snapMu sync.RWMutex

	issued atomic.Uint64

	// Offset bookkeeping so a snapshot never claims a log position whose
	// entry hasn't been applied yet.
	offMu        sync.Mutex
	lastAppended uint64
	inFlight     map[uint64]struct{}
}

// New constructs the database, loading the latest snapshot and replaying the
// log suffix through the same apply path used at runtime.
func New(gen genesis.Genesis, strg Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis:   gen,
		storage:   strg,
		evHandler: evHandler,
		records:   make(map[AccountID]*accountRecord),
		inFlight:  make(map[uint64]struct{}),
	}
	if db.evHandler == nil {
		db.evHandler = func(v string, args ...any) {}
	}

	// Seed the ledger from the latest snapshot if one exists.
	snapshot, err := strg.ReadSnapshot()
	switch err {
	case nil:
		for accountID, account := range snapshot.Accounts {
			db.records[accountID] = &accountRecord{account: account}
		}
		db.issued.Store(snapshot.Issued)
		db.lastAppended = snapshot.LogOffset
		db.evHandler("database: startup: snapshot loaded: offset[%d] accounts[%d]", snapshot.LogOffset, len(snapshot.Accounts))

	case ErrNoSnapshot:
		// Fresh node, nothing to seed.

	default:
		return nil, err
	}

	// Replay the log entries the snapshot doesn't cover. Replayed history
	// is trusted: it was validated before it was appended.
	iter := strg.ForEach(db.lastAppended)
	for entry, err := iter.Next(); !iter.Done(); entry, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if _, _, err := db.applyTx(entry.Tx); err != nil {
			db.evHandler("database: startup: replay: offset[%d] tx[%s]: WARNING: %s", entry.Offset, entry.Tx, err)
		}
		db.lastAppended = entry.Offset
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.storage.Close()
}

// =============================================================================

// Append write-ahead logs the transaction. The entry is durable when the
// call returns and its offset is tracked as in-flight until the matching
// ApplyTransaction completes.
func (db *Database) Append(tx LogTx) (uint64, error) {
	offset, err := db.storage.Append(tx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrStorageIO, err)
	}

	db.offMu.Lock()
	defer db.offMu.Unlock()

	if offset > db.lastAppended {
		db.lastAppended = offset
	}
	db.inFlight[offset] = struct{}{}

	return offset, nil
}

// ApplyTransaction performs the business logic for applying an already
// validated and already appended transaction to the ledger. It returns
// post-apply copies of the two affected accounts.
func (db *Database) ApplyTransaction(offset uint64, tx LogTx) (from Account, to Account, err error) {
	defer func() {
		db.offMu.Lock()
		delete(db.inFlight, offset)
		db.offMu.Unlock()
	}()

	return db.applyTx(tx)
}

// applyTx mutates the ledger for the transaction. The in-memory step is a
// single atomic mutation under the affected record locks; the defensive
// re-checks mirror the validator so a bad entry can never corrupt state.
func (db *Database) applyTx(tx LogTx) (from Account, to Account, err error) {
	db.snapMu.RLock()
	defer db.snapMu.RUnlock()

	if tx.IsFaucet() {
		return db.applyFaucet(tx)
	}
	return db.applyTransfer(tx)
}

func (db *Database) applyTransfer(tx LogTx) (Account, Account, error) {
	if tx.FromID == tx.ToID {
		return Account{}, Account{}, fmt.Errorf("%w: transfer to self", ErrInvalidAmount)
	}

	recFrom := db.record(tx.FromID)
	recTo := db.record(tx.ToID)

	// Lock both records in a stable order to avoid deadlock with a
	// concurrent transfer in the opposite direction.
	first, second := recFrom, recTo
	if tx.ToID < tx.FromID {
		first, second = recTo, recFrom
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if tx.Nonce != recFrom.account.Nonce {
		return Account{}, Account{}, fmt.Errorf("%w: account %s, next nonce %d, got %d", ErrNonceConflict, tx.FromID, recFrom.account.Nonce, tx.Nonce)
	}
	if recFrom.account.Balance < tx.Value {
		return Account{}, Account{}, fmt.Errorf("%w: account %s, bal %d, needed %d", ErrInsufficientBalance, tx.FromID, recFrom.account.Balance, tx.Value)
	}

	recFrom.account.Balance -= tx.Value
	recFrom.account.Nonce++
	recTo.account.Balance += tx.Value

	recFrom.appendHistory(tx)
	recTo.appendHistory(tx)

	return recFrom.account, recTo.account, nil
}

func (db *Database) applyFaucet(tx LogTx) (Account, Account, error) {
	rec := db.record(tx.ToID)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if tx.Nonce != rec.account.FaucetNonce {
		return Account{}, Account{}, fmt.Errorf("%w: account %s, next faucet nonce %d, got %d", ErrNonceConflict, tx.ToID, rec.account.FaucetNonce, tx.Nonce)
	}

	// The issuance cap is evaluated at the transaction's own timestamp so
	// every node reaches the same verdict regardless of when the
	// transaction arrives.
	budget := db.genesis.IssuanceCap(time.Unix(int64(tx.TimeStamp), 0).UTC())
	if db.issued.Load()+tx.Value > budget {
		return Account{}, Account{}, fmt.Errorf("%w: issued %d, cap %d", ErrSupplyExhausted, db.issued.Load(), budget)
	}

	rec.account.Balance += tx.Value
	rec.account.FaucetNonce++
	if tx.TimeStamp > rec.account.LastClaim {
		rec.account.LastClaim = tx.TimeStamp
	}
	rec.appendHistory(tx)

	db.issued.Add(tx.Value)

	return Account{AccountID: FaucetAccount}, rec.account, nil
}

// =============================================================================

// Query returns a copy of the account. Callers never receive a live
// reference into the ledger.
func (db *Database) Query(accountID AccountID) (Account, error) {
	db.mu.RLock()
	rec, exists := db.records[accountID]
	db.mu.RUnlock()

	if !exists {
		return Account{}, ErrAccountNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return rec.account, nil
}

// QueryWithHistory returns a copy of the account along with its window of
// recently applied transactions.
func (db *Database) QueryWithHistory(accountID AccountID) (Account, []LogTx, error) {
	db.mu.RLock()
	rec, exists := db.records[accountID]
	db.mu.RUnlock()

	if !exists {
		return Account{}, nil, ErrAccountNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	history := make([]LogTx, len(rec.history))
	copy(history, rec.history)

	return rec.account, history, nil
}

// CopyAccounts makes a copy of the current accounts in the database.
func (db *Database) CopyAccounts() map[AccountID]Account {
	db.mu.RLock()
	records := make([]*accountRecord, 0, len(db.records))
	for _, rec := range db.records {
		records = append(records, rec)
	}
	db.mu.RUnlock()

	accounts := make(map[AccountID]Account, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		accounts[rec.account.AccountID] = rec.account
		rec.mu.Unlock()
	}

	return accounts
}

// Issued returns the total faucet issuance to date. The sum of all balances
// always equals this value; transfers neither create nor destroy value.
func (db *Database) Issued() uint64 {
	return db.issued.Load()
}

// NonceDigest returns the applied nonce progress per identity, used for the
// peer digest exchange. The first map covers transfer nonces, the second
// faucet claim sequences.
func (db *Database) NonceDigest() (map[AccountID]uint64, map[AccountID]uint64) {
	accounts := db.CopyAccounts()

	nonces := make(map[AccountID]uint64)
	faucetNonces := make(map[AccountID]uint64)
	for accountID, account := range accounts {
		if account.Nonce > 0 {
			nonces[accountID] = account.Nonce
		}
		if account.FaucetNonce > 0 {
			faucetNonces[accountID] = account.FaucetNonce
		}
	}

	return nonces, faucetNonces
}

// =============================================================================

// Snapshot writes a full account table checkpoint tagged with the highest
// log offset whose entry is known to be applied. Startup replay skips the
// log prefix the snapshot covers.
func (db *Database) Snapshot() error {
	db.snapMu.Lock()
	defer db.snapMu.Unlock()

	db.offMu.Lock()
	safeOffset := db.lastAppended
	for offset := range db.inFlight {
		if offset-1 < safeOffset {
			safeOffset = offset - 1
		}
	}
	db.offMu.Unlock()

	db.mu.RLock()
	accounts := make(map[AccountID]Account, len(db.records))
	for accountID, rec := range db.records {
		accounts[accountID] = rec.account
	}
	db.mu.RUnlock()

	snapshot := Snapshot{
		LogOffset: safeOffset,
		Issued:    db.issued.Load(),
		Accounts:  accounts,
	}

	if err := db.storage.WriteSnapshot(snapshot); err != nil {
		return fmt.Errorf("%w: %s", ErrStorageIO, err)
	}

	db.evHandler("database: snapshot: offset[%d] accounts[%d] issued[%d]", safeOffset, len(accounts), snapshot.Issued)

	return nil
}

// QueryTxRange scans the durable log for the account's transactions with
// nonces in [fromNonce, toNonce]. With faucet true the scan matches faucet
// claims credited to the account instead of transfers it sent. Entries come
// back in nonce order since the log records them in apply order.
func (db *Database) QueryTxRange(accountID AccountID, fromNonce uint64, toNonce uint64, faucet bool) ([]LogTx, error) {
	if toNonce < fromNonce {
		return nil, nil
	}

	var txs []LogTx

	iter := db.storage.ForEach(0)
	for entry, err := iter.Next(); !iter.Done(); entry, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		tx := entry.Tx
		switch {
		case faucet:
			if !tx.IsFaucet() || tx.ToID != accountID {
				continue
			}
		default:
			if tx.IsFaucet() || tx.FromID != accountID {
				continue
			}
		}

		if tx.Nonce < fromNonce || tx.Nonce > toNonce {
			continue
		}

		txs = append(txs, tx)
	}

	sort.Slice(txs, func(i, j int) bool { return txs[i].Nonce < txs[j].Nonce })

	return txs, nil
}

// =============================================================================

// record returns the lockable record for the account, creating it on first
// touch. Accounts are created implicitly and never deleted.
func (db *Database) record(accountID AccountID) *accountRecord {
	db.mu.RLock()
	rec, exists := db.records[accountID]
	db.mu.RUnlock()

	if exists {
		return rec
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if rec, exists := db.records[accountID]; exists {
		return rec
	}

	rec = &accountRecord{account: Account{AccountID: accountID}}
	db.records[accountID] = rec

	return rec
}
