package app

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// retryOnConflict runs fn until it succeeds, fails with anything other than
// ErrConcurrentUpdate, or runs out of retries. fn must reload state on every call.
func retryOnConflict(ctx context.Context, retries uint64, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond

	return backoff.Retry(func() error {
		err := fn()
		if err == nil || errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
}
