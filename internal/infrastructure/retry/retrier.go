// Package retry retries ledger operations that lost an optimistic race.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/moneytransfer/internal/domain"
)

// Config configures a Retrier. Zero values fall back to defaults.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	// IsRetryable defaults to matching domain.ErrConcurrencyConflict.
	IsRetryable func(error) bool
	Logger      zerolog.Logger
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	isRetryable     func(error) bool
	logger          zerolog.Logger
}

// NewRetrier creates a new Retrier.
func NewRetrier(cfg Config) *Retrier {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 10 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 200 * time.Millisecond
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = 5 * time.Second
	}
	if cfg.IsRetryable == nil {
		cfg.IsRetryable = IsConflict
	}

	return &Retrier{
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		maxElapsedTime:  cfg.MaxElapsedTime,
		isRetryable:     cfg.IsRetryable,
		logger:          cfg.Logger,
	}
}

// IsConflict reports whether err is an optimistic concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrConcurrencyConflict)
}

// Retry executes an operation with exponential backoff on retryable errors.
// The last error is returned unchanged once the retry budget is spent.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	retryCount := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		if !r.isRetryable(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			return backoff.Permanent(err)
		}

		r.logger.Debug().
			Err(err).
			Int("retry", retryCount).
			Msg("ledger conflict, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}
