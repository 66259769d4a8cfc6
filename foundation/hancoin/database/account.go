package database

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
)

// FaucetAccount is the sentinel sender for faucet issued transactions. There
// is no private key for this account; faucet transactions are signed by the
// claiming account instead.
const FaucetAccount = AccountID("0x0000000000000000000000000000000000fa0ce7")

// Account represents information stored in the database for an individual
// account. Nonce is the next value expected from the account, not the last
// one used, so a fresh account transacts with nonce 0.
type Account struct {
	AccountID   AccountID `json:"account_id"`
	Balance     uint64    `json:"balance"`
	Nonce       uint64    `json:"nonce"`
	FaucetNonce uint64    `json:"faucet_nonce"` // Next expected faucet claim sequence for this account.
	LastClaim   uint64    `json:"last_claim"`   // Unix seconds of the last faucet claim, 0 for never.
}

// =============================================================================

// AccountID represents an account id that is used to sign transactions and is
// associated with transactions on the network.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).String())
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	const addressLength = 20

	if has0xPrefix(a) {
		a = a[2:]
	}

	return len(a) == 2*addressLength && isHex(a)
}

// =============================================================================

// has0xPrefix validates the account starts with a 0x.
func has0xPrefix(a AccountID) bool {
	return len(a) >= 2 && a[0] == '0' && (a[1] == 'x' || a[1] == 'X')
}

// isHex validates whether each byte is a valid hexadecimal character.
func isHex(a AccountID) bool {
	if len(a)%2 != 0 {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
