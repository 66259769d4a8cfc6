package public

import "github.com/hancoin9/hancoin/foundation/hancoin/database"

type tx struct {
	FromAccount database.AccountID `json:"from"`
	FromName    string             `json:"from_name"`
	To          database.AccountID `json:"to"`
	ToName      string             `json:"to_name"`
	Nonce       uint64             `json:"nonce"`
	Value       uint64             `json:"value"`
	TimeStamp   uint64             `json:"timestamp"`
	Hash        string             `json:"hash"`
	Sig         string             `json:"sig"`
}

type info struct {
	Account     database.AccountID `json:"account"`
	Name        string             `json:"name"`
	Balance     uint64             `json:"balance"`
	Nonce       uint64             `json:"nonce"`
	FaucetNonce uint64             `json:"faucet_nonce"`
	History     []tx               `json:"history,omitempty"`
}

type actInfo struct {
	Issued   uint64 `json:"issued"`
	Accounts []info `json:"accounts"`
}
