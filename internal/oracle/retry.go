package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"campaign_agent/pkg/logger"
)

// retry runs op until it succeeds, returns a permanent error, or the retry
// budget is exhausted. Malformed replies are retried since models often
// recover on a second sample.
func retry(ctx context.Context, name string, retries int, interval time.Duration, op func(context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = interval
	eb.MaxInterval = 10 * interval

	attempt := 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
	return backoff.RetryNotify(func() error {
		attempt++
		err := op(ctx)
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		logger.Warnf("[oracle] %s attempt %d failed, retrying in %s: %v", name, attempt, wait, err)
	})
}
