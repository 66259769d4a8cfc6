package events_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hancoin9/hancoin/foundation/events"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_AccountDelivery(t *testing.T) {
	t.Log("Given the need to deliver events to the right connections.")
	{
		t.Log("\tTest 0:\tWhen two accounts hold connections on the hub.")
		{
			hub := events.New(10)
			defer hub.Shutdown()

			chA, err := hub.Acquire("conn-a", "account-a")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to acquire for account a: %v", failed, err)
			}
			chB, err := hub.Acquire("conn-b", "account-b")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to acquire for account b: %v", failed, err)
			}

			hub.SendTo("account-a", "hello-a")

			select {
			case msg := <-chA:
				if msg != "hello-a" {
					t.Fatalf("\t%s\tTest 0:\tShould deliver the right event: got %q.", failed, msg)
				}
			default:
				t.Fatalf("\t%s\tTest 0:\tShould deliver to the addressed account.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould deliver to the addressed account.", success)

			select {
			case msg := <-chB:
				t.Fatalf("\t%s\tTest 0:\tShould not deliver to other accounts: got %q.", failed, msg)
			default:
			}
			t.Logf("\t%s\tTest 0:\tShould not deliver to other accounts.", success)

			hub.Broadcast("everyone")
			for name, ch := range map[string]<-chan string{"a": chA, "b": chB} {
				select {
				case msg := <-ch:
					if msg != "everyone" {
						t.Fatalf("\t%s\tTest 0:\tShould broadcast to %s: got %q.", failed, name, msg)
					}
				default:
					t.Fatalf("\t%s\tTest 0:\tShould broadcast to %s.", failed, name)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould broadcast to every connection.", success)
		}
	}
}

func Test_ConnectionLimit(t *testing.T) {
	t.Log("Given the need to bound the number of live connections.")
	{
		t.Log("\tTest 0:\tWhen more clients connect than the hub allows.")
		{
			hub := events.New(2)
			defer hub.Shutdown()

			for i := 0; i < 2; i++ {
				if _, err := hub.Acquire(fmt.Sprintf("conn-%d", i), "account"); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould accept connection %d: %v", failed, i, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould accept connections up to the limit.", success)

			if _, err := hub.Acquire("conn-2", "account"); !errors.Is(err, events.ErrHubFull) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse past the limit with ErrHubFull: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse past the limit with ErrHubFull.", success)

			hub.Release("conn-0")
			if _, err := hub.Acquire("conn-2", "account"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept again after a release: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept again after a release.", success)
		}
	}
}

func Test_SlowConsumer(t *testing.T) {
	t.Log("Given the need to keep producers unblocked by slow clients.")
	{
		t.Log("\tTest 0:\tWhen a client never drains its queue.")
		{
			hub := events.New(1)
			defer hub.Shutdown()

			ch, err := hub.Acquire("conn", "account")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to acquire: %v", failed, err)
			}

			// Fill past the queue depth; SendTo must never block.
			const sends = 150
			for i := 0; i < sends; i++ {
				hub.SendTo("account", fmt.Sprintf("event-%d", i))
			}
			t.Logf("\t%s\tTest 0:\tShould survive %d sends without blocking.", success, sends)

			// The oldest events were dropped; the first one received is
			// not event-0.
			first := <-ch
			if first == "event-0" {
				t.Fatalf("\t%s\tTest 0:\tShould drop the oldest events first.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould drop the oldest events first.", success)

			// The newest event is still in the queue.
			var last string
			for {
				var ok bool
				var msg string
				select {
				case msg, ok = <-ch:
				default:
					ok = false
				}
				if !ok {
					break
				}
				last = msg
			}
			if last != fmt.Sprintf("event-%d", sends-1) {
				t.Fatalf("\t%s\tTest 0:\tShould keep the newest event: got %q.", failed, last)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the newest event.", success)
		}
	}
}
