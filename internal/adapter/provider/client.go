package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxAttempts = 3
	baseBackoff = 200 * time.Millisecond
)

// HTTPDoer is the subset of *http.Client the provider clients need.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// doWithRetry issues the request up to maxAttempts times, backing off
// exponentially on transport errors, 429 and 5xx responses. Other status
// codes are returned to the caller as-is. The context bounds the whole
// attempt sequence.
func doWithRetry(ctx context.Context, client HTTPDoer, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("provider returned status %d", resp.StatusCode)
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}
