package database

import (
	"errors"
	"fmt"
)

// ValidateTransaction is the single choke point every transaction passes
// before acceptance, whether it came from a wallet, a peer or the faucet.
// The checks run in order and short-circuit on the first failure. Validation
// never mutates the ledger; the same transaction can be validated
// independently by every node.
func (db *Database) ValidateTransaction(tx LogTx) error {

	// 1. The signature must verify against the signer identity.
	if err := tx.SignedTx.Validate(db.genesis.ChainID); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	// 2. The amount must be strictly positive and the parties distinct.
	if tx.Value == 0 {
		return ErrInvalidAmount
	}
	if tx.FromID == tx.ToID {
		return fmt.Errorf("%w: transfer to self", ErrInvalidAmount)
	}

	// 3. The nonce must be the next expected value for the sequence it
	// belongs to. Ahead means the transaction is early, not wrong.
	sequenceID := tx.FromID
	if tx.IsFaucet() {
		sequenceID = tx.ToID
	}

	account, history, err := db.QueryWithHistory(sequenceID)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return err
	}

	expected := account.Nonce
	if tx.IsFaucet() {
		expected = account.FaucetNonce
	}

	switch {
	case tx.Nonce > expected:
		return fmt.Errorf("%w: expected %d, got %d", ErrNonceGap, expected, tx.Nonce)

	case tx.Nonce < expected:
		return classifyConsumedNonce(tx, history)
	}

	// 4. Faucet issued transactions skip the balance check; the supply
	// budget is enforced at apply time instead.
	if !tx.IsFaucet() {
		if account.Balance < tx.Value {
			return fmt.Errorf("%w: bal %d, needed %d", ErrInsufficientBalance, account.Balance, tx.Value)
		}
	}

	return nil
}

// classifyConsumedNonce distinguishes a retransmission of an applied
// transaction from a conflicting transaction racing for a consumed nonce.
// Outside the retained history window the transaction is treated as a
// replay, which is the harmless verdict.
func classifyConsumedNonce(tx LogTx, history []LogTx) error {
	for _, applied := range history {
		if applied.Nonce != tx.Nonce || applied.IsFaucet() != tx.IsFaucet() {
			continue
		}
		if !tx.IsFaucet() && applied.FromID != tx.FromID {
			continue
		}

		if applied.Equals(tx) {
			return ErrReplayedTx
		}
		return fmt.Errorf("%w: nonce %d", ErrNonceConflict, tx.Nonce)
	}

	return ErrReplayedTx
}
