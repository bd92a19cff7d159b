package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
)

// TransferServiceConfig holds the collaborators and settings of a TransferService.
type TransferServiceConfig struct {
	Ledger             Ledger
	Publisher          EventPublisher
	IDGen              IDGenerator
	Metrics            MetricsRecorder
	Logger             zerolog.Logger
	Clock              func() time.Time
	PublishTimeout     time.Duration
	PublishMode        PublishMode
	TransferEventDelay time.Duration
}

// TransferService runs a ledger mutation and then announces it.
// Publication starts only after the ledger has committed and its failure
// never changes the outcome reported to the caller.
type TransferService struct {
	ledger             Ledger
	publisher          EventPublisher
	idGen              IDGenerator
	metrics            MetricsRecorder
	logger             zerolog.Logger
	clock              func() time.Time
	publishTimeout     time.Duration
	publishMode        PublishMode
	transferEventDelay time.Duration

	inflight sync.WaitGroup
}

// NewTransferService creates a new TransferService.
func NewTransferService(cfg TransferServiceConfig) *TransferService {
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultPublishTimeout
	}
	if cfg.PublishMode == "" {
		cfg.PublishMode = PublishModeSync
	}
	if cfg.TransferEventDelay < 0 {
		cfg.TransferEventDelay = 0
	}

	return &TransferService{
		ledger:             cfg.Ledger,
		publisher:          cfg.Publisher,
		idGen:              cfg.IDGen,
		metrics:            cfg.Metrics,
		logger:             cfg.Logger,
		clock:              cfg.Clock,
		publishTimeout:     cfg.PublishTimeout,
		publishMode:        cfg.PublishMode,
		transferEventDelay: cfg.TransferEventDelay,
	}
}

// DepositFunds credits an account and publishes a deposit-received event.
func (s *TransferService) DepositFunds(ctx context.Context, accountID string, amount decimal.Decimal) error {
	if err := s.ledger.DepositFunds(ctx, accountID, amount); err != nil {
		return err
	}

	event := domain.NewDepositReceivedEvent(s.idGen.Generate(), accountID, amount, s.clock())
	s.publish(ctx, event)

	return nil
}

// TransferFunds moves funds and publishes a transfer-completed event.
// The record is returned whether or not the event could be delivered.
func (s *TransferService) TransferFunds(ctx context.Context, sourceID, targetID string, amount decimal.Decimal) (*domain.TransferRecord, error) {
	record, err := s.ledger.TransferFunds(ctx, sourceID, targetID, amount)
	if err != nil {
		return nil, err
	}

	event := domain.NewTransferCompletedEvent(s.idGen.Generate(), *record, s.transferEventDelay)
	s.publish(ctx, event)

	return record, nil
}

// Wait blocks until every asynchronous publication has finished.
func (s *TransferService) Wait() {
	s.inflight.Wait()
}

func (s *TransferService) publish(ctx context.Context, event domain.DomainEvent) {
	// Only the publish timeout bounds publication, not caller cancellation.
	ctx = context.WithoutCancel(ctx)

	if s.publishMode == PublishModeAsync {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.publishBounded(ctx, event)
		}()
		return
	}

	s.publishBounded(ctx, event)
}

func (s *TransferService) publishBounded(ctx context.Context, event domain.DomainEvent) {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, event)
	if err == nil {
		s.metrics.RecordEventPublished(string(event.Type))
		return
	}

	s.metrics.RecordPublishFailure(string(event.Type), publishFailureReason(err))
	s.logger.Warn().
		Err(err).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Strs("account_ids", event.AccountIDs).
		Msg("event publish failed, ledger change kept")
}

func publishFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrPublishTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrTransportUnavailable):
		return "transport_unavailable"
	default:
		return "other"
	}
}
