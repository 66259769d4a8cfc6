package state

import (
	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/peer"
)

// QueryAccount returns a copy of the account from the database.
func (s *State) QueryAccount(accountID database.AccountID) (database.Account, error) {
	return s.db.Query(accountID)
}

// QueryAccountWithHistory returns a copy of the account along with its
// recent transaction window.
func (s *State) QueryAccountWithHistory(accountID database.AccountID) (database.Account, []database.LogTx, error) {
	return s.db.QueryWithHistory(accountID)
}

// RetrieveAccounts returns a copy of the full account table.
func (s *State) RetrieveAccounts() map[database.AccountID]database.Account {
	return s.db.CopyAccounts()
}

// RetrieveIssued returns the total faucet issuance to date.
func (s *State) RetrieveIssued() uint64 {
	return s.db.Issued()
}

// RetrieveDigest builds the compact ledger summary exchanged with peers.
func (s *State) RetrieveDigest() peer.Digest {
	nonces, faucetNonces := s.db.NonceDigest()

	return peer.Digest{
		Nonces:       nonces,
		FaucetNonces: faucetNonces,
		Issued:       s.db.Issued(),
	}
}

// QueryTxRange returns the account's logged transactions with nonces in
// [fromNonce, toNonce], in nonce order.
func (s *State) QueryTxRange(accountID database.AccountID, fromNonce uint64, toNonce uint64, faucet bool) ([]database.LogTx, error) {
	return s.db.QueryTxRange(accountID, fromNonce, toNonce, faucet)
}
