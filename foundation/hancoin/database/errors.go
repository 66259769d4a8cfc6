package database

import "errors"

// Set of errors the validator can return. Every transaction, whether it
// comes from a wallet, a peer or the faucet, fails with one of these.
var (
	// ErrInvalidSignature is returned when the signature doesn't verify
	// against the declared sender.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidAmount is returned when the value isn't strictly positive
	// or the transaction is otherwise malformed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrReplayedTx is returned when an already applied transaction shows
	// up again. This is not fatal to the submitter since honest peers
	// retransmit; the application is an idempotent no-op.
	ErrReplayedTx = errors.New("transaction already applied")

	// ErrNonceConflict is returned when a different transaction has already
	// consumed the nonce. The first applied transaction wins, the loser is
	// never applied.
	ErrNonceConflict = errors.New("nonce already consumed by a different transaction")

	// ErrNonceGap is returned when the nonce is ahead of the sender's next
	// expected value. The transaction is not wrong, just early; callers
	// buffer it until the gap fills.
	ErrNonceGap = errors.New("nonce ahead of the expected value")

	// ErrInsufficientBalance is returned when the sender can't cover
	// the value.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrRateLimited is returned when a faucet claim comes before the
	// cooldown window has elapsed.
	ErrRateLimited = errors.New("faucet cooldown not elapsed")

	// ErrSupplyExhausted is returned when a faucet claim would exceed the
	// issuance budget.
	ErrSupplyExhausted = errors.New("issuance budget exhausted")

	// ErrStorageIO is returned when the durable log rejects an append. The
	// transaction is aborted entirely and the ledger is never mutated.
	ErrStorageIO = errors.New("storage i/o failure")

	// ErrAccountNotFound is returned on queries for unknown accounts.
	ErrAccountNotFound = errors.New("account not found")
)
