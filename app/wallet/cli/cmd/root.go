// Package cmd contains the wallet app.
package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/genesis"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	url         string
)

const (
	keyExtension = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Path to the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zledger/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple wallet",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(accountPath, accountName)
}

// =============================================================================
// Response shapes from the public node API.

type txInfo struct {
	FromAccount database.AccountID `json:"from"`
	FromName    string             `json:"from_name"`
	To          database.AccountID `json:"to"`
	ToName      string             `json:"to_name"`
	Nonce       uint64             `json:"nonce"`
	Value       uint64             `json:"value"`
	TimeStamp   uint64             `json:"timestamp"`
	Hash        string             `json:"hash"`
}

type accountInfo struct {
	Account     database.AccountID `json:"account"`
	Name        string             `json:"name"`
	Balance     uint64             `json:"balance"`
	Nonce       uint64             `json:"nonce"`
	FaucetNonce uint64             `json:"faucet_nonce"`
	History     []txInfo           `json:"history"`
}

type accountsResp struct {
	Issued   uint64        `json:"issued"`
	Accounts []accountInfo `json:"accounts"`
}

// queryAccount fetches the node's view of the specified account. An unknown
// account comes back zero valued, which is also correct for the first use
// of a fresh key.
func queryAccount(accountID database.AccountID) (accountInfo, error) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/accounts/%s", url, accountID))
	if err != nil {
		return accountInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return accountInfo{Account: accountID}, nil
	}

	var ar accountsResp
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return accountInfo{}, err
	}

	if len(ar.Accounts) == 0 {
		return accountInfo{Account: accountID}, nil
	}

	return ar.Accounts[0], nil
}

// queryGenesis fetches the network parameters from the node.
func queryGenesis() (genesis.Genesis, error) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/genesis", url))
	if err != nil {
		return genesis.Genesis{}, err
	}
	defer resp.Body.Close()

	var gen genesis.Genesis
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return genesis.Genesis{}, err
	}

	return gen, nil
}
