// Package faucet gates free issuance so a single identity can't drain the
// budget. Its sole responsibility is the per-identity cooldown; the produced
// transaction flows through the same validator, store, ledger and gossip
// path as any transfer.
package faucet

import (
	"fmt"
	"sync"
	"time"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/genesis"
)

// Faucet authorizes at most one issuance per account per cooldown window.
type Faucet struct {
	genesis genesis.Genesis
	db      *database.Database

	// claims serializes the check-and-set per identity so two concurrent
	// claims can't both pass the time check. The ledger's LastClaim field
	// is the durable record; this map only covers the window between
	// authorization and apply.
	mu     sync.Mutex
	claims map[database.AccountID]time.Time
}

// New constructs a faucet for the specified issuance policy.
func New(gen genesis.Genesis, db *database.Database) *Faucet {
	return &Faucet{
		genesis: gen,
		db:      db,
		claims:  make(map[database.AccountID]time.Time),
	}
}

// TryClaim authorizes the claim carried by the signed transaction. On
// success the cooldown is consumed atomically and the caller forwards the
// transaction through the normal accept path. A denied claim reports the
// remaining wait wrapped around ErrRateLimited.
func (f *Faucet) TryClaim(tx database.SignedTx, now time.Time) error {
	if !tx.IsFaucet() {
		return fmt.Errorf("%w: sender is not the faucet sentinel", database.ErrInvalidAmount)
	}
	if tx.Value != f.genesis.FaucetAmount {
		return fmt.Errorf("%w: claim value %d, policy %d", database.ErrInvalidAmount, tx.Value, f.genesis.FaucetAmount)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	last := f.claims[tx.ToID]

	// The ledger's record survives restarts; take whichever is later.
	if account, err := f.db.Query(tx.ToID); err == nil {
		durable := time.Unix(int64(account.LastClaim), 0).UTC()
		if durable.After(last) {
			last = durable
		}
	}

	if wait := f.genesis.FaucetCooldown - now.Sub(last); !last.IsZero() && wait > 0 {
		return fmt.Errorf("%w: retry in %s", database.ErrRateLimited, wait.Round(time.Second))
	}

	if f.db.Issued()+tx.Value > f.genesis.IssuanceCap(now) {
		return database.ErrSupplyExhausted
	}

	f.claims[tx.ToID] = now

	return nil
}

// RemainingWait reports how long the identity must wait before its next
// claim. Zero means a claim would be authorized now.
func (f *Faucet) RemainingWait(accountID database.AccountID, now time.Time) time.Duration {
	f.mu.Lock()
	last := f.claims[accountID]
	f.mu.Unlock()

	if account, err := f.db.Query(accountID); err == nil {
		durable := time.Unix(int64(account.LastClaim), 0).UTC()
		if durable.After(last) {
			last = durable
		}
	}

	if last.IsZero() {
		return 0
	}

	wait := f.genesis.FaucetCooldown - now.Sub(last)
	if wait < 0 {
		return 0
	}

	return wait
}
