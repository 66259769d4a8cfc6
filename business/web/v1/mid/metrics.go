package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/hancoin9/hancoin/foundation/web"
)

// Counters published on the debug mux under /debug/vars.
var (
	goroutines = expvar.NewInt("goroutines")
	requests   = expvar.NewInt("requests")
	failures   = expvar.NewInt("errors")
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			requests.Add(1)
			if requests.Value()%100 == 0 {
				goroutines.Set(int64(runtime.NumGoroutine()))
			}
			if err != nil {
				failures.Add(1)
			}

			return err
		}

		return h
	}

	return m
}
