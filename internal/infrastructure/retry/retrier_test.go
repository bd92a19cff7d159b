package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iho/moneytransfer/internal/domain"
)

func fastRetrier(maxRetries int) *Retrier {
	return NewRetrier(Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	})
}

func TestRetrierRetriesOnConflict(t *testing.T) {
	r := fastRetrier(2)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return fmt.Errorf("%w: version moved", domain.ErrConcurrencyConflict)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := fastRetrier(3)
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return domain.ErrInsufficientFunds
	})

	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := fastRetrier(3)
	attempts := 0

	err := r.Retry(context.Background(), func() error {
		attempts++
		return domain.ErrConcurrencyConflict
	})

	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected conflict to surface, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 1 attempt plus 3 retries, got %d", attempts)
	}
}

func TestRetrierCustomClassifier(t *testing.T) {
	transient := errors.New("transient")
	r := NewRetrier(Config{
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		IsRetryable:     func(err error) bool { return errors.Is(err, transient) },
	})

	attempts := 0
	_ = r.Retry(context.Background(), func() error {
		attempts++
		return transient
	})

	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(fmt.Errorf("wrapped: %w", domain.ErrConcurrencyConflict)) {
		t.Fatal("expected wrapped conflict to be detected")
	}
	if IsConflict(errors.New("other")) {
		t.Fatal("expected generic error not to be a conflict")
	}
}
