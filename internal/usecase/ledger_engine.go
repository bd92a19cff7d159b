package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
)

// LedgerEngineConfig holds the collaborators of a LedgerEngine.
type LedgerEngineConfig struct {
	Store   AccountStore
	IDGen   IDGenerator
	Retrier Retrier
	Metrics MetricsRecorder
	Logger  zerolog.Logger
	Clock   func() time.Time
}

// LedgerEngine applies deposits and transfers against the AccountStore.
// Every mutation is a read of the current versions followed by one atomic
// compare-and-swap, retried on conflict.
type LedgerEngine struct {
	store   AccountStore
	idGen   IDGenerator
	retrier Retrier
	metrics MetricsRecorder
	logger  zerolog.Logger
	clock   func() time.Time
}

// NewLedgerEngine creates a new LedgerEngine.
func NewLedgerEngine(cfg LedgerEngineConfig) *LedgerEngine {
	if cfg.Retrier == nil {
		cfg.Retrier = singleAttempt{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	return &LedgerEngine{
		store:   cfg.Store,
		idGen:   cfg.IDGen,
		retrier: cfg.Retrier,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		clock:   cfg.Clock,
	}
}

// DepositFunds credits amount to an existing account.
func (e *LedgerEngine) DepositFunds(ctx context.Context, accountID string, amount decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	err := e.commit(ctx, func() error {
		account, err := e.store.Get(ctx, accountID)
		if err != nil {
			return err
		}

		return e.store.CompareAndSwap(ctx, []BalanceUpdate{{
			AccountID:       account.ID,
			ExpectedVersion: account.Version,
			NewBalance:      account.ApplyCredit(amount),
		}})
	})
	e.metrics.ObserveLedgerOperation(OperationDeposit, time.Since(start), err)
	if err != nil {
		return err
	}

	e.metrics.RecordDeposit(amount)
	e.logger.Debug().
		Str("account_id", accountID).
		Str("amount", amount.String()).
		Msg("deposit committed")

	return nil
}

// TransferFunds moves amount from source to target in one atomic step.
func (e *LedgerEngine) TransferFunds(ctx context.Context, sourceID, targetID string, amount decimal.Decimal) (*domain.TransferRecord, error) {
	if err := domain.ValidateTransfer(sourceID, targetID, amount); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	err := e.commit(ctx, func() error {
		source, target, err := e.loadPair(ctx, sourceID, targetID)
		if err != nil {
			return err
		}

		if err := source.ValidateDebit(amount); err != nil {
			return err
		}

		return e.store.CompareAndSwap(ctx, []BalanceUpdate{
			{AccountID: source.ID, ExpectedVersion: source.Version, NewBalance: source.ApplyDebit(amount)},
			{AccountID: target.ID, ExpectedVersion: target.Version, NewBalance: target.ApplyCredit(amount)},
		})
	})
	e.metrics.ObserveLedgerOperation(OperationTransfer, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	record := &domain.TransferRecord{
		ID:              e.idGen.Generate(),
		SourceAccountID: sourceID,
		TargetAccountID: targetID,
		Amount:          amount,
		TransferredAt:   e.clock(),
		Status:          domain.TransferStatusCompleted,
	}

	e.metrics.RecordTransfer(amount)
	e.logger.Debug().
		Str("transfer_id", record.ID).
		Str("source_account_id", sourceID).
		Str("target_account_id", targetID).
		Str("amount", amount.String()).
		Msg("transfer committed")

	return record, nil
}

// loadPair reads both accounts in ascending ID order.
func (e *LedgerEngine) loadPair(ctx context.Context, sourceID, targetID string) (*domain.Account, *domain.Account, error) {
	first, second := sourceID, targetID
	if second < first {
		first, second = second, first
	}

	a, err := e.store.Get(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := e.store.Get(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if a.ID == sourceID {
		return a, b, nil
	}
	return b, a, nil
}

func (e *LedgerEngine) commit(ctx context.Context, op func() error) error {
	err := e.retrier.Retry(ctx, op)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		e.logger.Warn().Err(err).Msg("ledger conflict retries exhausted")
		return fmt.Errorf("%w: %w", domain.ErrLedgerContention, err)
	}
	return err
}

type singleAttempt struct{}

func (singleAttempt) Retry(_ context.Context, fn func() error) error {
	return fn()
}
