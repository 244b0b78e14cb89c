package dbretry

import (
	"context"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

// Policy bounds retries of transient store failures. It is constructed once
// and passed explicitly to the operations that need it; there is no global
// retry state. Logical failures (validation, conflict, authorization) are
// never retried.
type Policy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Retryable       func(error) bool
}

// DefaultPolicy retries connection-level failures a handful of times with
// exponential backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     4,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Retryable:       IsTransient,
	}
}

// IsTransient reports whether the error is a connectivity-level failure worth
// retrying. Errors carrying a service error code are always logical and never
// transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if serrors.CodeOf(err) != "" && serrors.CodeOf(err) != serrors.CodeStoreUnavailable {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

// Do runs op, retrying per the policy. When attempts are exhausted the last
// error is surfaced as a store-unavailable error wrapping the cause.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval

	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	var exhausted bool
	err := backoff.Retry(func() error {
		if err := op(ctx); err != nil {
			if !retryable(err) {
				exhausted = false
				return backoff.Permanent(err)
			}
			exhausted = true
			return err
		}
		exhausted = false
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, attempts-1), ctx))
	if err == nil {
		return nil
	}
	if exhausted {
		return errors.Wrap(serrors.StoreUnavailable("store unreachable: "+err.Error()), "retries exhausted")
	}
	return err
}
