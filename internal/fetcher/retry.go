package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maplewav/newslens/internal/types"
)

// Retrying wraps a Fetcher with bounded retries for transient failures.
// Non-retryable errors pass through immediately; a 429 Retry-After hint
// overrides the configured back-off.
type Retrying struct {
	inner      Fetcher
	maxRetries int
	delay      time.Duration
	logger     *slog.Logger
}

// NewRetrying wraps inner with up to maxRetries retry attempts.
func NewRetrying(inner Fetcher, maxRetries int, delay time.Duration, logger *slog.Logger) *Retrying {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &Retrying{
		inner:      inner,
		maxRetries: maxRetries,
		delay:      delay,
		logger:     logger.With("component", "retry_fetcher"),
	}
}

// Fetch retrieves the URL, retrying transient failures with jittered back-off.
func (r *Retrying) Fetch(ctx context.Context, url string) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			wait := RandomDelay(r.delay * time.Duration(attempt))
			var fetchErr *types.FetchError
			if errors.As(lastErr, &fetchErr) && fetchErr.RetryAfter > 0 {
				wait = fetchErr.RetryAfter
			}

			r.logger.Debug("retrying fetch", "url", url, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		resp, err := r.inner.Fetch(ctx, url)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var fetchErr *types.FetchError
		if !errors.As(err, &fetchErr) || !fetchErr.Retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: giving up on %s after %d attempts: %v",
		types.ErrMaxRetries, url, r.maxRetries+1, lastErr)
}

// Close releases the wrapped fetcher's resources.
func (r *Retrying) Close() error {
	return r.inner.Close()
}

// Type returns the wrapped fetcher's type identifier.
func (r *Retrying) Type() string {
	return r.inner.Type()
}
