package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/usecase"
	"github.com/iho/moneytransfer/internal/usecase/mocks"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newService(ledger usecase.Ledger, publisher usecase.EventPublisher, metrics usecase.MetricsRecorder, mode usecase.PublishMode) *usecase.TransferService {
	return usecase.NewTransferService(usecase.TransferServiceConfig{
		Ledger:             ledger,
		Publisher:          publisher,
		IDGen:              &sequentialIDs{},
		Metrics:            metrics,
		Clock:              func() time.Time { return fixedNow },
		PublishTimeout:     50 * time.Millisecond,
		PublishMode:        mode,
		TransferEventDelay: 3 * time.Second,
	})
}

func TestTransferService_TransferFunds(t *testing.T) {
	record := &domain.TransferRecord{
		ID:              "tr-1",
		SourceAccountID: "a",
		TargetAccountID: "b",
		Amount:          decimal.NewFromInt(30),
		TransferredAt:   fixedNow,
		Status:          domain.TransferStatusCompleted,
	}

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockLedger, *mocks.MockEventPublisher, *mocks.MockMetricsRecorder)
		wantRecord bool
		errorType  error
	}{
		{
			name: "publishes after commit",
			setupMocks: func(l *mocks.MockLedger, p *mocks.MockEventPublisher, m *mocks.MockMetricsRecorder) {
				gomock.InOrder(
					l.EXPECT().TransferFunds(gomock.Any(), "a", "b", decimal.NewFromInt(30)).Return(record, nil),
					p.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, e domain.DomainEvent) error {
						if e.Type != domain.EventTypeTransferCompleted {
							t.Errorf("unexpected event type %s", e.Type)
						}
						if e.Transfer == nil || e.Transfer.ID != "tr-1" {
							t.Errorf("event must carry the transfer record, got %+v", e.Transfer)
						}
						if e.DeliveryDelay != 3*time.Second {
							t.Errorf("expected 3s delivery hint, got %s", e.DeliveryDelay)
						}
						if _, ok := ctx.Deadline(); !ok {
							t.Error("publish context must carry a deadline")
						}
						return nil
					}),
					m.EXPECT().RecordEventPublished(string(domain.EventTypeTransferCompleted)),
				)
			},
			wantRecord: true,
		},
		{
			name: "publish failure is swallowed",
			setupMocks: func(l *mocks.MockLedger, p *mocks.MockEventPublisher, m *mocks.MockMetricsRecorder) {
				l.EXPECT().TransferFunds(gomock.Any(), "a", "b", decimal.NewFromInt(30)).Return(record, nil)
				p.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(domain.ErrTransportUnavailable)
				m.EXPECT().RecordPublishFailure(string(domain.EventTypeTransferCompleted), "transport_unavailable")
			},
			wantRecord: true,
		},
		{
			name: "ledger failure emits nothing",
			setupMocks: func(l *mocks.MockLedger, p *mocks.MockEventPublisher, m *mocks.MockMetricsRecorder) {
				l.EXPECT().TransferFunds(gomock.Any(), "a", "b", decimal.NewFromInt(30)).Return(nil, domain.ErrInsufficientFunds)
			},
			errorType: domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockLedger(ctrl)
			publisher := mocks.NewMockEventPublisher(ctrl)
			metrics := mocks.NewMockMetricsRecorder(ctrl)
			tt.setupMocks(ledger, publisher, metrics)

			svc := newService(ledger, publisher, metrics, usecase.PublishModeSync)
			got, err := svc.TransferFunds(context.Background(), "a", "b", decimal.NewFromInt(30))

			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Fatalf("expected %v, got %v", tt.errorType, err)
				}
				if got != nil {
					t.Fatalf("expected nil record, got %+v", got)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantRecord && (got == nil || got.ID != "tr-1") {
				t.Fatalf("expected record tr-1, got %+v", got)
			}
		})
	}
}

func TestTransferService_DepositFunds(t *testing.T) {
	t.Run("publishes deposit event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ledger := mocks.NewMockLedger(ctrl)
		publisher := mocks.NewMockEventPublisher(ctrl)
		metrics := mocks.NewMockMetricsRecorder(ctrl)

		ledger.EXPECT().DepositFunds(gomock.Any(), "a", decimal.NewFromInt(5)).Return(nil)
		publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e domain.DomainEvent) error {
			if e.Type != domain.EventTypeDepositReceived || e.AccountIDs[0] != "a" || !e.OccurredAt.Equal(fixedNow) {
				t.Errorf("unexpected event %+v", e)
			}
			return nil
		})
		metrics.EXPECT().RecordEventPublished(string(domain.EventTypeDepositReceived))

		svc := newService(ledger, publisher, metrics, usecase.PublishModeSync)
		if err := svc.DepositFunds(context.Background(), "a", decimal.NewFromInt(5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ledger failure returns unchanged error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ledger := mocks.NewMockLedger(ctrl)
		publisher := mocks.NewMockEventPublisher(ctrl)

		ledger.EXPECT().DepositFunds(gomock.Any(), "a", decimal.Zero).Return(domain.ErrInvalidAmount)

		svc := newService(ledger, publisher, usecase.NopMetrics{}, usecase.PublishModeSync)
		if err := svc.DepositFunds(context.Background(), "a", decimal.Zero); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("publish timeout is swallowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ledger := mocks.NewMockLedger(ctrl)
		publisher := mocks.NewMockEventPublisher(ctrl)
		metrics := mocks.NewMockMetricsRecorder(ctrl)

		ledger.EXPECT().DepositFunds(gomock.Any(), "a", decimal.NewFromInt(5)).Return(nil)
		publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ domain.DomainEvent) error {
			<-ctx.Done()
			return ctx.Err()
		})
		metrics.EXPECT().RecordPublishFailure(string(domain.EventTypeDepositReceived), "timeout")

		svc := newService(ledger, publisher, metrics, usecase.PublishModeSync)

		start := time.Now()
		if err := svc.DepositFunds(context.Background(), "a", decimal.NewFromInt(5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Fatalf("publish was not bounded, took %s", elapsed)
		}
	})
}

func TestTransferService_PublishSurvivesCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedger(ctrl)
	publisher := mocks.NewMockEventPublisher(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	ledger.EXPECT().DepositFunds(gomock.Any(), "a", decimal.NewFromInt(1)).DoAndReturn(func(context.Context, string, decimal.Decimal) error {
		cancel()
		return nil
	})
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ domain.DomainEvent) error {
		return ctx.Err()
	})

	svc := newService(ledger, publisher, usecase.NopMetrics{}, usecase.PublishModeSync)
	if err := svc.DepositFunds(ctx, "a", decimal.NewFromInt(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransferService_AsyncModeDoesNotWait(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedger(ctrl)
	publisher := mocks.NewMockEventPublisher(ctrl)

	record := &domain.TransferRecord{ID: "tr-9", SourceAccountID: "a", TargetAccountID: "b", Amount: decimal.NewFromInt(1)}
	release := make(chan struct{})
	var published sync.WaitGroup
	published.Add(1)

	ledger.EXPECT().TransferFunds(gomock.Any(), "a", "b", decimal.NewFromInt(1)).Return(record, nil)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domain.DomainEvent) error {
		defer published.Done()
		<-release
		return nil
	})

	svc := usecase.NewTransferService(usecase.TransferServiceConfig{
		Ledger:         ledger,
		Publisher:      publisher,
		IDGen:          &sequentialIDs{},
		PublishTimeout: time.Second,
		PublishMode:    usecase.PublishModeAsync,
	})

	got, err := svc.TransferFunds(context.Background(), "a", "b", decimal.NewFromInt(1))
	if err != nil || got.ID != "tr-9" {
		t.Fatalf("unexpected result %+v, %v", got, err)
	}

	close(release)
	svc.Wait()
	published.Wait()
}
