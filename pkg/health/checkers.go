package health

import (
	"context"
	"net/http"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when the goroutine count exceeds threshold.
// Useful as a liveness probe to catch goroutine leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// HTTPCheck reports whether the upstream at url is reachable: a GET must
// produce some response below 5xx. An auth or not-found status still proves
// the dependency is up, so readiness probes against API roots (such as the
// payment gateway base URL) do not flap on non-2xx answers.
func HTTPCheck(client *http.Client, url string) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		resp, err := client.Do(req)
		if err != nil {
			return errors.Wrap(err, "request")
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode >= http.StatusInternalServerError {
			return errors.Errorf("upstream unhealthy: status %d", resp.StatusCode)
		}
		return nil
	}
}
