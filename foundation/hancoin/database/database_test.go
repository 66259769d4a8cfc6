package database_test

import (
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/database/storage/memory"
	"github.com/hancoin9/hancoin/foundation/hancoin/genesis"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

var testGenesis = genesis.Genesis{
	Date:           time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	ChainID:        1,
	TotalSupply:    1_000_000,
	FaucetAmount:   100,
	FaucetCooldown: time.Hour,
}

func newDatabase(t *testing.T) *database.Database {
	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}

	db, err := database.New(testGenesis, strg, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %v", failed, err)
	}

	return db
}

func newAccount(t *testing.T) (*ecdsa.PrivateKey, database.AccountID) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
	}
	return pk, database.PublicKeyToAccountID(pk.PublicKey)
}

func signTx(t *testing.T, pk *ecdsa.PrivateKey, nonce uint64, fromID database.AccountID, toID database.AccountID, value uint64) database.LogTx {
	tx, err := database.NewTx(testGenesis.ChainID, nonce, fromID, toID, value, uint64(time.Now().Unix()))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign a transaction: %v", failed, err)
	}

	return database.NewLogTx(signedTx)
}

// claimTx builds a faucet claim for the specified account, signed by the
// claiming account's own key.
func claimTx(t *testing.T, pk *ecdsa.PrivateKey, faucetNonce uint64, toID database.AccountID) database.LogTx {
	return signTx(t, pk, faucetNonce, database.FaucetAccount, toID, testGenesis.FaucetAmount)
}

// accept runs the full validate/append/apply path used at runtime.
func accept(db *database.Database, tx database.LogTx) error {
	if err := db.ValidateTransaction(tx); err != nil {
		return err
	}

	offset, err := db.Append(tx)
	if err != nil {
		return err
	}

	_, _, err = db.ApplyTransaction(offset, tx)
	return err
}

// =============================================================================

func Test_TransferFlow(t *testing.T) {
	t.Log("Given the need to validate transfers against the ledger.")
	{
		t.Log("\tTest 0:\tWhen an account funded with 100 sends 30 and then tries to send 80.")
		{
			db := newDatabase(t)
			pkA, accountA := newAccount(t)
			_, accountB := newAccount(t)

			if err := accept(db, claimTx(t, pkA, 0, accountA)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to fund the sender: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to fund the sender.", success)

			if err := accept(db, signTx(t, pkA, 0, accountA, accountB, 30)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to apply the first transfer: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to apply the first transfer.", success)

			err := accept(db, signTx(t, pkA, 1, accountA, accountB, 80))
			if !errors.Is(err, database.ErrInsufficientBalance) {
				t.Fatalf("\t%s\tTest 0:\tShould reject an overdraft with ErrInsufficientBalance: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject an overdraft with ErrInsufficientBalance.", success)

			acctA, err := db.Query(accountA)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to query the sender: %v", failed, err)
			}
			if acctA.Balance != 70 || acctA.Nonce != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the sender at balance 70 nonce 1, got %d/%d.", failed, acctA.Balance, acctA.Nonce)
			}
			t.Logf("\t%s\tTest 0:\tShould leave the sender at balance 70 nonce 1.", success)

			acctB, err := db.Query(accountB)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to query the receiver: %v", failed, err)
			}
			if acctB.Balance != 30 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the receiver at balance 30, got %d.", failed, acctB.Balance)
			}
			t.Logf("\t%s\tTest 0:\tShould leave the receiver at balance 30.", success)

			// The failed transfer must not have touched anything.
			var sum uint64
			for _, account := range db.CopyAccounts() {
				sum += account.Balance
			}
			if sum != db.Issued() {
				t.Fatalf("\t%s\tTest 0:\tShould conserve value: balances %d, issued %d.", failed, sum, db.Issued())
			}
			t.Logf("\t%s\tTest 0:\tShould conserve value.", success)
		}
	}
}

func Test_NonceSequencing(t *testing.T) {
	t.Log("Given the need to enforce strict nonce sequencing.")
	{
		t.Log("\tTest 0:\tWhen a transaction arrives ahead of its sequence.")
		{
			db := newDatabase(t)
			pkA, accountA := newAccount(t)
			_, accountB := newAccount(t)

			if err := accept(db, claimTx(t, pkA, 0, accountA)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to fund the sender: %v", failed, err)
			}

			err := db.ValidateTransaction(signTx(t, pkA, 5, accountA, accountB, 10))
			if !errors.Is(err, database.ErrNonceGap) {
				t.Fatalf("\t%s\tTest 0:\tShould report ErrNonceGap for an early nonce: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould report ErrNonceGap for an early nonce.", success)
		}

		t.Log("\tTest 1:\tWhen the identical transaction is submitted twice.")
		{
			db := newDatabase(t)
			pkA, accountA := newAccount(t)
			_, accountB := newAccount(t)

			if err := accept(db, claimTx(t, pkA, 0, accountA)); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to fund the sender: %v", failed, err)
			}

			tx := signTx(t, pkA, 0, accountA, accountB, 25)
			if err := accept(db, tx); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to apply the transaction: %v", failed, err)
			}

			err := db.ValidateTransaction(tx)
			if !errors.Is(err, database.ErrReplayedTx) {
				t.Fatalf("\t%s\tTest 1:\tShould report ErrReplayedTx for a retransmission: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould report ErrReplayedTx for a retransmission.", success)
		}

		t.Log("\tTest 2:\tWhen a different transaction races for a consumed nonce.")
		{
			db := newDatabase(t)
			pkA, accountA := newAccount(t)
			_, accountB := newAccount(t)
			_, accountC := newAccount(t)

			if err := accept(db, claimTx(t, pkA, 0, accountA)); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to fund the sender: %v", failed, err)
			}

			if err := accept(db, signTx(t, pkA, 0, accountA, accountB, 25)); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to apply the first transaction: %v", failed, err)
			}

			err := db.ValidateTransaction(signTx(t, pkA, 0, accountA, accountC, 25))
			if !errors.Is(err, database.ErrNonceConflict) {
				t.Fatalf("\t%s\tTest 2:\tShould report ErrNonceConflict for a losing double spend: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould report ErrNonceConflict for a losing double spend.", success)
		}
	}
}

func Test_InvalidTransactions(t *testing.T) {
	t.Log("Given the need to reject malformed transactions.")
	{
		db := newDatabase(t)
		pkA, accountA := newAccount(t)
		pkB, accountB := newAccount(t)

		if err := accept(db, claimTx(t, pkA, 0, accountA)); err != nil {
			t.Fatalf("\t%s\tShould be able to fund the sender: %v", failed, err)
		}

		t.Log("\tTest 0:\tWhen the value is zero.")
		{
			err := db.ValidateTransaction(signTx(t, pkA, 0, accountA, accountB, 0))
			if !errors.Is(err, database.ErrInvalidAmount) {
				t.Fatalf("\t%s\tTest 0:\tShould report ErrInvalidAmount: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould report ErrInvalidAmount.", success)
		}

		t.Log("\tTest 1:\tWhen the sender and receiver are the same account.")
		{
			err := db.ValidateTransaction(signTx(t, pkA, 0, accountA, accountA, 10))
			if !errors.Is(err, database.ErrInvalidAmount) {
				t.Fatalf("\t%s\tTest 1:\tShould report ErrInvalidAmount: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould report ErrInvalidAmount.", success)
		}

		t.Log("\tTest 2:\tWhen the signature doesn't match the declared sender.")
		{
			// Signed with B's key but declares A as the sender.
			err := db.ValidateTransaction(signTx(t, pkB, 0, accountA, accountB, 10))
			if !errors.Is(err, database.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest 2:\tShould report ErrInvalidSignature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould report ErrInvalidSignature.", success)
		}
	}
}

func Test_SnapshotRestart(t *testing.T) {
	t.Log("Given the need to rebuild the ledger from snapshot plus log suffix.")
	{
		t.Log("\tTest 0:\tWhen a node restarts after a snapshot and further appends.")
		{
			strg, err := memory.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open storage: %v", failed, err)
			}

			db, err := database.New(testGenesis, strg, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open database: %v", failed, err)
			}

			pkA, accountA := newAccount(t)
			_, accountB := newAccount(t)

			if err := accept(db, claimTx(t, pkA, 0, accountA)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to fund the sender: %v", failed, err)
			}
			if err := accept(db, signTx(t, pkA, 0, accountA, accountB, 10)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to apply a transfer: %v", failed, err)
			}

			if err := db.Snapshot(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write a snapshot: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to write a snapshot.", success)

			// More activity after the checkpoint.
			if err := accept(db, signTx(t, pkA, 1, accountA, accountB, 15)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to apply a post-snapshot transfer: %v", failed, err)
			}

			// Reopen against the same storage.
			db2, err := database.New(testGenesis, strg, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to reopen the database: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to reopen the database.", success)

			before := db.CopyAccounts()
			after := db2.CopyAccounts()
			if len(before) != len(after) {
				t.Fatalf("\t%s\tTest 0:\tShould rebuild to the same account count: got %d, exp %d.", failed, len(after), len(before))
			}
			for accountID, account := range before {
				rebuilt := after[accountID]
				if rebuilt != account {
					t.Fatalf("\t%s\tTest 0:\tShould rebuild account %s identically: got %+v, exp %+v.", failed, accountID, rebuilt, account)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould rebuild every account identically.", success)

			if db.Issued() != db2.Issued() {
				t.Fatalf("\t%s\tTest 0:\tShould rebuild the issued total: got %d, exp %d.", failed, db2.Issued(), db.Issued())
			}
			t.Logf("\t%s\tTest 0:\tShould rebuild the issued total.", success)
		}
	}
}

func Test_QueryTxRange(t *testing.T) {
	t.Log("Given the need to serve nonce ranges from the durable log.")
	{
		t.Log("\tTest 0:\tWhen a peer asks for a slice of an account's transfers.")
		{
			db := newDatabase(t)
			pkA, accountA := newAccount(t)
			_, accountB := newAccount(t)

			if err := accept(db, claimTx(t, pkA, 0, accountA)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to fund the sender: %v", failed, err)
			}

			for nonce := uint64(0); nonce < 4; nonce++ {
				if err := accept(db, signTx(t, pkA, nonce, accountA, accountB, 5)); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to apply transfer %d: %v", failed, nonce, err)
				}
			}

			txs, err := db.QueryTxRange(accountA, 1, 2, false)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to query the range: %v", failed, err)
			}
			if len(txs) != 2 || txs[0].Nonce != 1 || txs[1].Nonce != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould get nonces 1 and 2 back, got %d txs.", failed, len(txs))
			}
			t.Logf("\t%s\tTest 0:\tShould get the inclusive nonce range back in order.", success)

			claims, err := db.QueryTxRange(accountA, 0, 0, true)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to query the faucet range: %v", failed, err)
			}
			if len(claims) != 1 || !claims[0].IsFaucet() {
				t.Fatalf("\t%s\tTest 0:\tShould get the faucet claim back, got %d txs.", failed, len(claims))
			}
			t.Logf("\t%s\tTest 0:\tShould get the faucet claim back on the faucet sequence.", success)
		}
	}
}
