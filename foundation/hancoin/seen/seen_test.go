package seen_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/hancoin9/hancoin/foundation/hancoin/seen"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_Dedup(t *testing.T) {
	t.Log("Given the need to suppress recently observed transactions.")
	{
		t.Log("\tTest 0:\tWhen a hash is recorded and checked within the ttl.")
		{
			c := seen.New(time.Minute, 100)
			now := time.Now()

			if c.Seen("0xabc", now) {
				t.Fatalf("\t%s\tTest 0:\tShould not report an unknown hash as seen.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not report an unknown hash as seen.", success)

			c.Add("0xabc", now)
			if !c.Seen("0xabc", now.Add(30*time.Second)) {
				t.Fatalf("\t%s\tTest 0:\tShould report the hash as seen within the ttl.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report the hash as seen within the ttl.", success)

			if c.Seen("0xabc", now.Add(2*time.Minute)) {
				t.Fatalf("\t%s\tTest 0:\tShould forget the hash after the ttl.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould forget the hash after the ttl.", success)

			c.Add("0xdef", now)
			c.Remove("0xdef")
			if c.Seen("0xdef", now) {
				t.Fatalf("\t%s\tTest 0:\tShould not report a removed hash as seen.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not report a removed hash as seen.", success)
		}
	}
}

func Test_SizeBound(t *testing.T) {
	t.Log("Given the need to cap the memory used for deduplication.")
	{
		t.Log("\tTest 0:\tWhen more hashes arrive than the cache may hold.")
		{
			const maxSize = 10

			c := seen.New(time.Minute, maxSize)
			now := time.Now()

			for i := 0; i < 2*maxSize; i++ {
				c.Add(fmt.Sprintf("0x%03d", i), now.Add(time.Duration(i)*time.Second))
			}

			if c.Len() > maxSize {
				t.Fatalf("\t%s\tTest 0:\tShould never exceed the size bound: got %d.", failed, c.Len())
			}
			t.Logf("\t%s\tTest 0:\tShould never exceed the size bound.", success)

			// The newest entry survives, the oldest is gone.
			if !c.Seen(fmt.Sprintf("0x%03d", 2*maxSize-1), now.Add(time.Duration(2*maxSize)*time.Second)) {
				t.Fatalf("\t%s\tTest 0:\tShould keep the newest hash.", failed)
			}
			if c.Seen("0x000", now.Add(time.Duration(2*maxSize)*time.Second)) {
				t.Fatalf("\t%s\tTest 0:\tShould evict the oldest hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould evict oldest first.", success)
		}
	}
}
