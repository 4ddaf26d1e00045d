package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
)

// MaxRetries bounds how many times a transaction is retried after a
// transient Postgres contention error before giving up with
// KindAcquireLockFailure.
const MaxRetries = 3

var retryBackoff = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}

// isRetryable reports whether err is a Postgres deadlock (40P01) or
// serialization failure (40001) — the two conditions a FOR UPDATE-based
// transaction can hit under concurrent stock reservation.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40P01", "40001":
		return true
	default:
		return false
	}
}

// withRetry runs fn, retrying up to MaxRetries times with exponential
// backoff when fn fails with a retryable Postgres error (lock contention or
// serialization failure). Non-retryable errors — including a callback
// rejection such as *apperr.ReserveRejected — are returned to the caller
// unchanged; only exhausting retries on a retryable error is reported as
// KindAcquireLockFailure. A deadline from ctx is honored between attempts.
func withRetry(ctx context.Context, label string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return apperr.Wrap(apperr.KindAcquireLockFailure, label, ctx.Err())
		case <-time.After(retryBackoff[attempt]):
		}
	}

	return apperr.New(apperr.KindAcquireLockFailure, label, lastErr.Error())
}
