// Package genesis maintains access to the issuance policy file.
package genesis

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Genesis represents the issuance policy for the network. Every node must
// run with the same policy or faucet transactions won't validate.
type Genesis struct {
	Date           time.Time     `json:"date"`
	ChainID        uint16        `json:"chain_id"`        // Unique id for this network instance.
	TotalSupply    uint64        `json:"total_supply"`    // Hard cap on coins ever issued by the faucet.
	FaucetAmount   uint64        `json:"faucet_amount"`   // Coins issued per faucet claim.
	FaucetCooldown time.Duration `json:"faucet_cooldown"` // Minimum wait between claims per account.
}

// Default returns the policy used when no genesis file exists on disk. The
// numbers mirror the original network launch: 10 billion coins with two
// decimal places, issued over 105 years.
func Default() Genesis {
	return Genesis{
		Date:           time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:        9,
		TotalSupply:    10_000_000_000 * 100,
		FaucetAmount:   100 * 100,
		FaucetCooldown: 24 * time.Hour,
	}
}

// Load opens and consumes the genesis file. If the file does not exist the
// default policy is returned so a fresh node can start without ceremony.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// YearlyBudget returns the number of coins the faucet may issue during the
// specified year of the network's life, starting at year 1. The schedule
// front-loads issuance and spreads the remaining 60% over the next century.
func (g Genesis) YearlyBudget(year int) uint64 {
	switch {
	case year == 1:
		return g.TotalSupply * 20 / 100
	case year == 2:
		return g.TotalSupply * 10 / 100
	case year == 3:
		return g.TotalSupply * 5 / 100
	case year == 4:
		return g.TotalSupply * 3 / 100
	case year == 5:
		return g.TotalSupply * 2 / 100
	case year >= 6 && year <= 105:
		return g.TotalSupply * 60 / 100 / 100
	}

	return 0
}

// IssuanceCap returns the cumulative number of coins the faucet may have
// issued by the specified moment in time.
func (g Genesis) IssuanceCap(now time.Time) uint64 {
	if now.Before(g.Date) {
		return 0
	}

	year := int(now.Sub(g.Date)/(365*24*time.Hour)) + 1

	var total uint64
	for y := 1; y <= year; y++ {
		total += g.YearlyBudget(y)
	}

	if total > g.TotalSupply {
		total = g.TotalSupply
	}

	return total
}
