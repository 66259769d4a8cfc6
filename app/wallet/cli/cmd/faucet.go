package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/spf13/cobra"
)

// faucetCmd claims the faucet grant for the wallet's account. The claim is a
// transaction from the faucet sentinel to this account, signed with this
// account's key so the node can tie the claim to the claimant.
var faucetCmd = &cobra.Command{
	Use:   "faucet",
	Short: "Claim the faucet grant for your account",
	Run:   faucetRun,
}

func init() {
	rootCmd.AddCommand(faucetCmd)
}

func faucetRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := database.PublicKeyToAccountID(privateKey.PublicKey)

	act, err := queryAccount(accountID)
	if err != nil {
		log.Fatal(err)
	}

	gen, err := queryGenesis()
	if err != nil {
		log.Fatal(err)
	}

	tx, err := database.NewTx(gen.ChainID, act.FaucetNonce, database.FaucetAccount, accountID, gen.FaucetAmount, uint64(time.Now().Unix()))
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(signedTx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/faucet/claim", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	msg, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(msg))
}
