package faucet_test

import (
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/database/storage/memory"
	"github.com/hancoin9/hancoin/foundation/hancoin/faucet"
	"github.com/hancoin9/hancoin/foundation/hancoin/genesis"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func newSetup(t *testing.T, gen genesis.Genesis) (*database.Database, *faucet.Faucet) {
	strg, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}

	db, err := database.New(gen, strg, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %v", failed, err)
	}

	return db, faucet.New(gen, db)
}

func newClaim(t *testing.T, gen genesis.Genesis, pk *ecdsa.PrivateKey, faucetNonce uint64, value uint64, at time.Time) database.SignedTx {
	toID := database.PublicKeyToAccountID(pk.PublicKey)

	tx, err := database.NewTx(gen.ChainID, faucetNonce, database.FaucetAccount, toID, value, uint64(at.Unix()))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a claim: %v", failed, err)
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign a claim: %v", failed, err)
	}

	return signedTx
}

// =============================================================================

func Test_Cooldown(t *testing.T) {
	gen := genesis.Genesis{
		Date:           time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:        1,
		TotalSupply:    1_000_000,
		FaucetAmount:   100,
		FaucetCooldown: time.Hour,
	}

	t.Log("Given the need to rate limit faucet claims per identity.")
	{
		t.Log("\tTest 0:\tWhen one identity claims twice inside the cooldown.")
		{
			db, f := newSetup(t, gen)

			pk, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a key: %v", failed, err)
			}

			now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

			claim := newClaim(t, gen, pk, 0, gen.FaucetAmount, now)
			if err := f.TryClaim(claim, now); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould authorize the first claim: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould authorize the first claim.", success)

			err = f.TryClaim(newClaim(t, gen, pk, 1, gen.FaucetAmount, now), now.Add(time.Minute))
			if !errors.Is(err, database.ErrRateLimited) {
				t.Fatalf("\t%s\tTest 0:\tShould deny a second claim inside the cooldown: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould deny a second claim inside the cooldown.", success)

			wait := f.RemainingWait(claim.ToID, now.Add(time.Minute))
			if wait <= 0 || wait > gen.FaucetCooldown {
				t.Fatalf("\t%s\tTest 0:\tShould report a remaining wait inside the cooldown: %s.", failed, wait)
			}
			t.Logf("\t%s\tTest 0:\tShould report the remaining wait.", success)

			later := now.Add(gen.FaucetCooldown + time.Minute)
			if err := f.TryClaim(newClaim(t, gen, pk, 1, gen.FaucetAmount, later), later); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould authorize a claim after the cooldown: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould authorize a claim after the cooldown.", success)

			_ = db
		}

		t.Log("\tTest 1:\tWhen the claim value doesn't match the policy.")
		{
			_, f := newSetup(t, gen)

			pk, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a key: %v", failed, err)
			}

			now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

			err = f.TryClaim(newClaim(t, gen, pk, 0, gen.FaucetAmount*2, now), now)
			if !errors.Is(err, database.ErrInvalidAmount) {
				t.Fatalf("\t%s\tTest 1:\tShould deny a claim for the wrong amount: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould deny a claim for the wrong amount.", success)
		}
	}
}

func Test_SupplyExhausted(t *testing.T) {

	// A supply so small the first-year budget can't cover one claim.
	gen := genesis.Genesis{
		Date:           time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:        1,
		TotalSupply:    200,
		FaucetAmount:   100,
		FaucetCooldown: time.Hour,
	}

	t.Log("Given the need to stop issuing once the budget is spent.")
	{
		t.Log("\tTest 0:\tWhen a claim would exceed the issuance cap.")
		{
			_, f := newSetup(t, gen)

			pk, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a key: %v", failed, err)
			}

			// Year one budget is 20% of 200 = 40 coins, less than one claim.
			now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

			err = f.TryClaim(newClaim(t, gen, pk, 0, gen.FaucetAmount, now), now)
			if !errors.Is(err, database.ErrSupplyExhausted) {
				t.Fatalf("\t%s\tTest 0:\tShould deny the claim with ErrSupplyExhausted: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould deny the claim with ErrSupplyExhausted.", success)
		}
	}
}
