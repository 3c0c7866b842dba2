// Package repositories maps the domain models onto docstore collections.
//
// Repositories return docstore sentinel errors (ErrNotFound,
// ErrPrecondition, ErrDuplicate) unchanged; classifying them into apperr
// kinds is the services' job.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shashiranjanraj/grinfood/pkg/docstore"
)

// maxReadRetries bounds the retries of idempotent reads.
const maxReadRetries = 3

// BackOffFunc builds a fresh backoff policy for one retried call.
type BackOffFunc func() backoff.BackOff

// DefaultBackOff is a short exponential policy suitable for request paths.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return b
}

// NoDelay retries immediately; tests use it.
func NoDelay() backoff.BackOff { return &backoff.ZeroBackOff{} }

// retryRead runs op until it succeeds, fails permanently or the retry
// budget is spent. Missing documents and cancelled contexts are permanent.
func retryRead(ctx context.Context, newBackOff BackOffFunc, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxReadRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		switch {
		case err == nil:
			return nil
		case errors.Is(err, docstore.ErrNotFound),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
