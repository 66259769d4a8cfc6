package pending_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/hancoin9/hancoin/foundation/hancoin/database"
	"github.com/hancoin9/hancoin/foundation/hancoin/pending"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	fromID = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	toID   = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
)

func makeTx(nonce uint64) database.LogTx {
	return database.LogTx{
		SignedTx: database.SignedTx{
			Tx: database.Tx{
				ChainID: 1,
				Nonce:   nonce,
				FromID:  fromID,
				ToID:    toID,
				Value:   10,
			},
		},
		Hash: fmt.Sprintf("0x%064d", nonce),
	}
}

// =============================================================================

func Test_HoldAndDrain(t *testing.T) {
	t.Log("Given the need to hold gapped transactions until their turn.")
	{
		t.Log("\tTest 0:\tWhen transactions arrive out of nonce order.")
		{
			p := pending.New()
			now := time.Now()

			p.Add(makeTx(3), now)
			p.Add(makeTx(1), now)
			p.Add(makeTx(2), now)

			if p.Count() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould hold 3 transactions, got %d.", failed, p.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould hold 3 transactions.", success)

			// Re-adding the same content is a no-op.
			p.Add(makeTx(2), now)
			if p.Count() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould deduplicate by content: got %d.", failed, p.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould deduplicate by content.", success)

			gaps := p.Gaps()
			if gaps[fromID] != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould report nonce 1 as the lowest held: got %d.", failed, gaps[fromID])
			}
			t.Logf("\t%s\tTest 0:\tShould report the lowest held nonce.", success)

			// Drain in order as the sequence advances.
			for _, nonce := range []uint64{1, 2, 3} {
				tx, ok := p.NextReady(fromID, nonce, false)
				if !ok || tx.Nonce != nonce {
					t.Fatalf("\t%s\tTest 0:\tShould pop nonce %d when ready.", failed, nonce)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould pop transactions in nonce order.", success)

			if _, ok := p.NextReady(fromID, 4, false); ok {
				t.Fatalf("\t%s\tTest 0:\tShould have nothing left to pop.", failed)
			}
			if p.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould be empty after draining: got %d.", failed, p.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould be empty after draining.", success)
		}
	}
}

func Test_Bounds(t *testing.T) {
	t.Log("Given the need to bound the buffer per identity.")
	{
		t.Log("\tTest 0:\tWhen an identity floods more than the held limit.")
		{
			p := pending.New()
			base := time.Now()

			// The highest nonce arrives first, so it is the entry held
			// longest when the bound is hit.
			var dropped []database.LogTx
			dropped = append(dropped, p.Add(makeTx(40), base)...)
			for nonce := uint64(1); nonce <= 39; nonce++ {
				dropped = append(dropped, p.Add(makeTx(nonce), base.Add(time.Duration(nonce)*time.Second))...)
			}

			if len(dropped) != 8 {
				t.Fatalf("\t%s\tTest 0:\tShould drop 8 entries, got %d.", failed, len(dropped))
			}
			t.Logf("\t%s\tTest 0:\tShould drop entries past the bound.", success)

			// The first casualty is the entry held longest, not the one
			// with the lowest nonce.
			if dropped[0].Nonce != 40 {
				t.Fatalf("\t%s\tTest 0:\tShould drop the longest held entry first: got nonce %d.", failed, dropped[0].Nonce)
			}
			t.Logf("\t%s\tTest 0:\tShould drop the longest held entry first.", success)

			if p.Count() != 32 {
				t.Fatalf("\t%s\tTest 0:\tShould hold at most 32 entries, got %d.", failed, p.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould hold at most 32 entries.", success)

			// The survivors are the most recent arrivals.
			gaps := p.Gaps()
			if gaps[fromID] != 8 {
				t.Fatalf("\t%s\tTest 0:\tShould keep nonce 8 as the lowest survivor: got %d.", failed, gaps[fromID])
			}
			t.Logf("\t%s\tTest 0:\tShould keep the most recent arrivals.", success)
		}
	}
}

func Test_Expire(t *testing.T) {
	t.Log("Given the need to drop stale held transactions.")
	{
		t.Log("\tTest 0:\tWhen entries age past the deadline.")
		{
			p := pending.New()
			base := time.Now()

			p.Add(makeTx(1), base)
			p.Add(makeTx(2), base.Add(3*time.Minute))

			dropped := p.Expire(base.Add(6*time.Minute), 5*time.Minute)
			if len(dropped) != 1 || dropped[0].Nonce != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould expire the stale entry, got %d.", failed, len(dropped))
			}
			t.Logf("\t%s\tTest 0:\tShould expire only the stale entry.", success)

			if p.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the fresh entry: got %d.", failed, p.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould keep the fresh entry.", success)
		}
	}
}
