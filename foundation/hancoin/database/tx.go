package database

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/hancoin9/hancoin/foundation/hancoin/signature"
)

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	ChainID   uint16    `json:"chain_id"`  // Id of the network the transaction belongs to.
	Nonce     uint64    `json:"nonce"`     // Per-sender sequence value, must equal the sender's next expected nonce.
	FromID    AccountID `json:"from"`      // Account sending the value.
	ToID      AccountID `json:"to"`        // Account receiving the value.
	Value     uint64    `json:"value"`     // Monetary value in the smallest indivisible unit.
	TimeStamp uint64    `json:"timestamp"` // Unix seconds when the transaction was constructed.
}

// NewTx constructs a new transaction.
func NewTx(chainID uint16, nonce uint64, fromID AccountID, toID AccountID, value uint64, timeStamp uint64) (Tx, error) {
	if !fromID.IsAccountID() {
		return Tx{}, fmt.Errorf("from account is not properly formatted")
	}
	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := Tx{
		ChainID:   chainID,
		Nonce:     nonce,
		FromID:    fromID,
		ToID:      toID,
		Value:     value,
		TimeStamp: timeStamp,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// Sign the transaction with the private key to produce a signature.
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	// Construct the signed transaction by adding the signature
	// in the [R|S|V] format.
	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// IsFaucet reports whether this transaction was issued by the faucet.
func (tx Tx) IsFaucet() bool {
	return tx.FromID == FaucetAccount
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the ledger.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Recovery identifier, either 31 or 32 with hancoinID.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the transaction has a proper signature that conforms to
// our standards and the signer matches the declared sender. Faucet issued
// transactions carry the claiming account's signature, so those verify
// against the recipient instead.
func (tx SignedTx) Validate(chainID uint16) error {
	if tx.ChainID != chainID {
		return fmt.Errorf("invalid chain id, got %d, exp %d", tx.ChainID, chainID)
	}

	if !tx.FromID.IsAccountID() {
		return fmt.Errorf("from account is not properly formatted")
	}
	if !tx.ToID.IsAccountID() {
		return fmt.Errorf("to account is not properly formatted")
	}

	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	if err != nil {
		return err
	}

	signer := tx.FromID
	if tx.IsFaucet() {
		signer = tx.ToID
	}

	if AccountID(address) != signer {
		return fmt.Errorf("signature address doesn't match signer address")
	}

	return nil
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%d", tx.FromID, tx.Nonce)
}

// =============================================================================

// LogTx represents the transaction as recorded in the durable log and shared
// between nodes. The hash of the canonical signed encoding is the identity
// used for deduplication everywhere.
type LogTx struct {
	SignedTx
	Hash string `json:"hash"`
}

// NewLogTx constructs a log transaction, computing the content hash over the
// signed transaction.
func NewLogTx(signedTx SignedTx) LogTx {
	return LogTx{
		SignedTx: signedTx,
		Hash:     signature.Hash(signedTx),
	}
}

// Equals reports whether two log transactions share the same content
// identity.
func (tx LogTx) Equals(otherTx LogTx) bool {
	return tx.Hash == otherTx.Hash
}

// Size returns the approximate wire size of the transaction. Used for the
// byte bound on the pending buffer.
func (tx LogTx) Size() int {
	const fixed = 256 // struct fields and JSON framing
	return fixed + len(tx.FromID) + len(tx.ToID) + len(tx.Hash)
}
