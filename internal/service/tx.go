package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pkordes/carpool/internal/domain"
)

// Transactor runs fn as one atomic unit: every repo call made with the ctx
// passed to fn joins the same database transaction, which commits when fn
// returns nil and rolls back otherwise.
// *manager.Manager from go-transaction-manager satisfies it.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// DefaultTxRetries is how many times a transaction that failed with
// domain.ErrTransient is re-run before the error is surfaced.
const DefaultTxRetries = 3

// txBaseDelay is the first backoff step between transient-failure retries.
const txBaseDelay = 10 * time.Millisecond

// coordinator wraps a Transactor with bounded retries of transient failures.
// Only whole transactions are retried, so a retry never observes a partial
// write from the failed attempt.
type coordinator struct {
	tx      Transactor
	retries uint64
}

func newCoordinator(tx Transactor, retries uint64) coordinator {
	return coordinator{tx: tx, retries: retries}
}

// run executes fn in a transaction, retrying on domain.ErrTransient.
func (c coordinator) run(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(txBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.tx.Do(ctx, fn)
		if errors.Is(err, domain.ErrTransient) {
			return retry.RetryableError(err)
		}
		return err
	})
}
