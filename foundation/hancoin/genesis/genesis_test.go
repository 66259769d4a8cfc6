package genesis_test

import (
	"testing"
	"time"

	"github.com/hancoin9/hancoin/foundation/hancoin/genesis"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_YearlyBudget(t *testing.T) {
	gen := genesis.Genesis{TotalSupply: 10_000}

	t.Log("Given the need to follow the declining issuance schedule.")
	{
		tt := []struct {
			year int
			exp  uint64
		}{
			{1, 2_000},
			{2, 1_000},
			{3, 500},
			{4, 300},
			{5, 200},
			{6, 60},
			{105, 60},
			{106, 0},
			{0, 0},
		}

		for _, tst := range tt {
			got := gen.YearlyBudget(tst.year)
			if got != tst.exp {
				t.Fatalf("\t%s\tShould budget %d for year %d, got %d.", failed, tst.exp, tst.year, got)
			}
		}
		t.Logf("\t%s\tShould budget per the declining schedule.", success)
	}
}

func Test_IssuanceCap(t *testing.T) {
	gen := genesis.Genesis{
		Date:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		TotalSupply: 10_000,
	}

	t.Log("Given the need to compute the cumulative issuance cap.")
	{
		t.Log("\tTest 0:\tWhen evaluating the cap at fixed points in time.")
		{
			if cap := gen.IssuanceCap(gen.Date.Add(-time.Hour)); cap != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould cap at 0 before launch, got %d.", failed, cap)
			}
			t.Logf("\t%s\tTest 0:\tShould cap at 0 before launch.", success)

			if cap := gen.IssuanceCap(gen.Date.Add(time.Hour)); cap != 2_000 {
				t.Fatalf("\t%s\tTest 0:\tShould cap at the first year budget, got %d.", failed, cap)
			}
			t.Logf("\t%s\tTest 0:\tShould cap at the first year budget.", success)

			// Two years in, years one and two are both available.
			if cap := gen.IssuanceCap(gen.Date.Add(366 * 24 * time.Hour)); cap != 3_000 {
				t.Fatalf("\t%s\tTest 0:\tShould accumulate year budgets, got %d.", failed, cap)
			}
			t.Logf("\t%s\tTest 0:\tShould accumulate year budgets.", success)

			// Far in the future the cap settles at the full supply.
			if cap := gen.IssuanceCap(gen.Date.Add(200 * 365 * 24 * time.Hour)); cap != gen.TotalSupply {
				t.Fatalf("\t%s\tTest 0:\tShould never exceed the total supply, got %d.", failed, cap)
			}
			t.Logf("\t%s\tTest 0:\tShould settle at the total supply.", success)
		}
	}
}

func Test_DefaultSchedule(t *testing.T) {
	t.Log("Given the need for the default schedule to issue the full supply.")
	{
		gen := genesis.Default()

		var sum uint64
		for year := 1; year <= 105; year++ {
			sum += gen.YearlyBudget(year)
		}

		if sum != gen.TotalSupply {
			t.Fatalf("\t%s\tShould issue exactly the total supply over 105 years: got %d, exp %d.", failed, sum, gen.TotalSupply)
		}
		t.Logf("\t%s\tShould issue exactly the total supply over 105 years.", success)
	}
}
