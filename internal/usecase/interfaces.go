package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
)

// BalanceUpdate is one leg of an atomic compare-and-swap.
type BalanceUpdate struct {
	AccountID       string
	ExpectedVersion int64
	NewBalance      decimal.Decimal
}

// AccountStore is the shared account state.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	Get(ctx context.Context, id string) (*domain.Account, error)
	// CompareAndSwap applies every update or none of them. It returns
	// domain.ErrConcurrencyConflict if any account's version moved.
	CompareAndSwap(ctx context.Context, updates []BalanceUpdate) error
	// List returns a consistent snapshot of all accounts ordered by ID.
	List(ctx context.Context) ([]*domain.Account, error)
}

// Ledger moves funds between accounts.
type Ledger interface {
	DepositFunds(ctx context.Context, accountID string, amount decimal.Decimal) error
	TransferFunds(ctx context.Context, sourceID, targetID string, amount decimal.Decimal) (*domain.TransferRecord, error)
}

// MoneyTransferService is the inbound surface used by transports.
type MoneyTransferService interface {
	DepositFunds(ctx context.Context, accountID string, amount decimal.Decimal) error
	TransferFunds(ctx context.Context, sourceID, targetID string, amount decimal.Decimal) (*domain.TransferRecord, error)
}

// CreditProvider assesses accounts for credit.
type CreditProvider interface {
	CheckCredit(ctx context.Context, accountID string) (*domain.CreditAssessment, error)
}

// EventPublisher hands domain events to the outside world.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}

// Retrier runs fn until it succeeds, fails permanently or the budget runs out.
type Retrier interface {
	Retry(ctx context.Context, fn func() error) error
}

// MetricsRecorder receives business metrics.
type MetricsRecorder interface {
	ObserveLedgerOperation(operation string, duration time.Duration, err error)
	RecordTransfer(amount decimal.Decimal)
	RecordDeposit(amount decimal.Decimal)
	RecordEventPublished(eventType string)
	RecordPublishFailure(eventType, reason string)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so the request can be retried.
	Release(ctx context.Context, key string) error
}
