package state

import (
	"errors"
	"time"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
)

// Time based policies for the synchronization machinery.
const (
	seenTTL     = 10 * time.Minute
	seenMaxSize = 10_000

	// pendingMaxAge bounds how long a nonce-gapped transaction is held
	// before it is dropped and the gap left for a future resync.
	pendingMaxAge = 5 * time.Minute
)

// AcceptStatus describes the outcome of submitting a transaction.
type AcceptStatus string

// Set of possible accept outcomes.
const (
	StatusAccepted AcceptStatus = "accepted"
	StatusPending  AcceptStatus = "queued-pending"
	StatusReplayed AcceptStatus = "replayed"
)

// =============================================================================

// SubmitWalletTransaction accepts a signed transaction from a wallet for
// validation, durable storage, application and gossip fan-out.
func (s *State) SubmitWalletTransaction(signedTx database.SignedTx) (AcceptStatus, error) {
	return s.acceptTx(database.NewLogTx(signedTx), "")
}

// SubmitNodeTransaction accepts a transaction gossiped by a peer. The origin
// host is excluded from the rebroadcast.
func (s *State) SubmitNodeTransaction(tx database.LogTx, originHost string) (AcceptStatus, error) {
	return s.acceptTx(tx, originHost)
}

// SubmitFaucetClaim accepts a faucet claim carried as a signed transaction
// from the claiming account. The cooldown gate is consumed first; the
// transaction then flows through the same accept path as any transfer.
func (s *State) SubmitFaucetClaim(signedTx database.SignedTx, now time.Time) (AcceptStatus, error) {
	if err := s.faucet.TryClaim(signedTx, now); err != nil {
		return "", err
	}

	return s.acceptTx(database.NewLogTx(signedTx), "")
}

// FaucetWait reports how long the account must wait before its next faucet
// claim is authorized.
func (s *State) FaucetWait(accountID database.AccountID, now time.Time) time.Duration {
	return s.faucet.RemainingWait(accountID, now)
}

// =============================================================================

// acceptTx runs the full acceptance pipeline: content dedup, validation,
// write-ahead append, ledger apply, push notification and gossip share.
// Acceptance is serialized per nonce sequence; transactions touching
// different identities proceed independently.
func (s *State) acceptTx(tx database.LogTx, originHost string) (AcceptStatus, error) {
	sequenceID := tx.FromID
	if tx.IsFaucet() {
		sequenceID = tx.ToID
	}

	mu := s.acceptLock(sequenceID)
	mu.Lock()
	defer mu.Unlock()

	status, applied, err := s.acceptOne(tx, originHost, false)
	if err != nil || status != StatusAccepted {
		return status, err
	}

	// The gap may now be filled: apply any buffered successors in nonce
	// order until the next one is missing.
	nextNonce := applied.Nonce
	if tx.IsFaucet() {
		nextNonce = applied.FaucetNonce
	}

	for {
		heldTx, ok := s.pendingTxs.NextReady(sequenceID, nextNonce, tx.IsFaucet())
		if !ok {
			break
		}

		s.evHandler("state: acceptTx: pending sweep: applying held tx[%s]", heldTx)

		heldStatus, heldApplied, err := s.acceptOne(heldTx, "", true)
		if err != nil || heldStatus != StatusAccepted {
			s.evHandler("state: acceptTx: pending sweep: tx[%s]: dropped: %v", heldTx, err)
			break
		}

		nextNonce = heldApplied.Nonce
		if heldTx.IsFaucet() {
			nextNonce = heldApplied.FaucetNonce
		}
	}

	return StatusAccepted, nil
}

// acceptOne performs a single validate/append/apply pass. The returned
// account is the post-apply copy of the sequence owner. The durable append
// always happens before the in-memory mutation and no lock is held across
// the append I/O other than the per-sequence accept lock. The sweep flag is
// set when replaying a buffered transaction that already passed the dedup
// gate on arrival.
func (s *State) acceptOne(tx database.LogTx, originHost string, sweep bool) (AcceptStatus, database.Account, error) {
	now := time.Now()

	// A recently observed identity was already processed or buffered;
	// suppress it without rebroadcasting.
	if !sweep && s.seenCache.Seen(tx.Hash, now) {
		return StatusReplayed, database.Account{}, nil
	}

	if err := s.db.ValidateTransaction(tx); err != nil {
		switch {
		case errors.Is(err, database.ErrNonceGap):
			s.seenCache.Add(tx.Hash, now)

			// A dropped entry must be forgotten as well or its resync
			// redelivery would be suppressed as a replay.
			if dropped := s.pendingTxs.Add(tx, now); len(dropped) > 0 {
				for _, droppedTx := range dropped {
					s.seenCache.Remove(droppedTx.Hash)
				}

				owner := tx.FromID
				if tx.IsFaucet() {
					owner = tx.ToID
				}
				s.evHandler("state: acceptOne: WARNING: pending bound hit, dropped %d held txs for %s", len(dropped), owner)
			}
			s.evHandler("state: acceptOne: tx[%s] held pending: %s", tx, err)
			return StatusPending, database.Account{}, nil

		case errors.Is(err, database.ErrReplayedTx):
			s.seenCache.Add(tx.Hash, now)
			return StatusReplayed, database.Account{}, nil

		default:
			return "", database.Account{}, err
		}
	}

	// Write-ahead: the transaction must be durable before the ledger is
	// mutated. A failed append aborts acceptance entirely.
	offset, err := s.db.Append(tx)
	if err != nil {
		s.evHandler("state: acceptOne: tx[%s]: ERROR: append failed: %s", tx, err)
		return "", database.Account{}, err
	}

	from, to, err := s.db.ApplyTransaction(offset, tx)
	if err != nil {

		// The validator passed but the ledger refused; the log entry is
		// harmless since replay applies the same defensive checks.
		s.evHandler("state: acceptOne: tx[%s]: ERROR: apply failed after append: %s", tx, err)
		return "", database.Account{}, err
	}

	s.seenCache.Add(tx.Hash, now)
	s.evHandler("state: acceptOne: tx[%s] applied: offset[%d]", tx, offset)

	s.publishTxEvents(tx, from, to)

	if s.Worker != nil {
		s.Worker.SignalShareTx(tx, originHost)
	}

	sequenceOwner := from
	if tx.IsFaucet() {
		sequenceOwner = to
	}

	return StatusAccepted, sequenceOwner, nil
}

// =============================================================================

// QueryPending returns the buffered nonce-gapped transactions for the
// account in nonce order.
func (s *State) QueryPending(accountID database.AccountID) []database.LogTx {
	return s.pendingTxs.Copy(accountID)
}

// ExpirePending drops transactions held past the pending deadline and
// forgets their identities so a future resync can redeliver them. The worker
// calls this on a timer.
func (s *State) ExpirePending(now time.Time) int {
	dropped := s.pendingTxs.Expire(now, pendingMaxAge)
	for _, tx := range dropped {
		s.seenCache.Remove(tx.Hash)
	}

	return len(dropped)
}

// PendingGaps reports the lowest held nonce per identity so the worker can
// request the missing predecessors from peers.
func (s *State) PendingGaps() map[database.AccountID]uint64 {
	return s.pendingTxs.Gaps()
}
