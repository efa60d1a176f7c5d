package helpers

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// NewExponentialBackoff creates the backoff policy used for upstream requests.
func NewExponentialBackoff(baseDelay time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 5 * time.Minute
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.1
	return b
}

// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn until it succeeds, returns a non-retryable error,
// maxRetries extra attempts are spent or ctx is done.
// notify is called before every wait and may be nil.
func RetryWithBackoff(
	ctx context.Context,
	maxRetries int,
	baseDelay time.Duration,
	fn func() error,
	notify func(attempt int, err error, wait time.Duration),
) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(NewExponentialBackoff(baseDelay), uint64(maxRetries)),
		ctx,
	)

	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		if notify != nil {
			notify(attempt, err, wait)
		}
	})
}

// -----------------------------------------------------------------------------

// IsRetryable classifies errors for RetryWithBackoff. Status errors decide
// for themselves, protocol errors never retry, anything else does.
func IsRetryable(err error) bool {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	var invalid *InvalidArgumentError
	if errors.As(err, &invalid) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}
