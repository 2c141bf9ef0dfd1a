package mid

import (
	"context"
	"net/http"
	"runtime"

	"github.com/ledgerd/powchain/business/sys/metrics"
	"github.com/ledgerd/powchain/foundation/web"
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Add the metrics into the context for metric gathering.
			ctx = metrics.Set(ctx)

			// Call the next handler.
			err := handler(ctx, w, r)

			// Handle updating the metrics that can be handled here.

			// Increment the request and goroutines counter.
			n := metrics.AddRequests(ctx)

			// Update the count for the number of active goroutines every 100 requests.
			if n%100 == 0 {
				metrics.SetGoroutines(ctx, int64(runtime.NumGoroutine()))
			}

			// Increment if there is an error flowing through the request.
			if err != nil {
				metrics.AddErrors(ctx)
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
