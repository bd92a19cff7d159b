package traced_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/iho/moneytransfer/internal/adapter/repository/memory"
	"github.com/iho/moneytransfer/internal/adapter/traced"
	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/infrastructure/eventpublisher"
	"github.com/iho/moneytransfer/internal/usecase"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type sequentialIDs struct{ n atomic.Int64 }

func (s *sequentialIDs) Generate() string { return fmt.Sprintf("id-%d", s.n.Add(1)) }

type downTransport struct{}

func (downTransport) Send(context.Context, []byte, string) error {
	return errors.New("dial tcp 127.0.0.1:6379: connection refused")
}

type okTransport struct{}

func (okTransport) Send(context.Context, []byte, string) error { return nil }

type fixture struct {
	store *memory.AccountStore
	svc   *usecase.TransferService
}

func newFixture(t *testing.T, transport eventpublisher.Transport, publisherWrap func(usecase.EventPublisher) usecase.EventPublisher) fixture {
	t.Helper()

	store := memory.NewAccountStore()
	for id, balance := range map[string]int64{"A": 100, "B": 0} {
		require.NoError(t, store.Create(context.Background(), &domain.Account{ID: id, Name: id, Balance: decimal.NewFromInt(balance)}))
	}

	clock := func() time.Time { return fixedNow }
	ids := &sequentialIDs{}

	var publisher usecase.EventPublisher = eventpublisher.NewBrokerPublisher(eventpublisher.Config{
		Transport: transport,
		Timeout:   100 * time.Millisecond,
	})
	if publisherWrap != nil {
		publisher = publisherWrap(publisher)
	}

	engine := usecase.NewLedgerEngine(usecase.LedgerEngineConfig{Store: store, IDGen: ids, Clock: clock})
	svc := usecase.NewTransferService(usecase.TransferServiceConfig{
		Ledger:    engine,
		Publisher: publisher,
		IDGen:     ids,
		Clock:     clock,
	})

	return fixture{store: store, svc: svc}
}

func newTracerProvider() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func spanErrors(rec *tracetest.SpanRecorder) map[string]int {
	out := map[string]int{}
	for _, s := range rec.Ended() {
		if s.Status().Code == codes.Error {
			out[s.Name()]++
		}
	}
	return out
}

func TestBrokerDownTransferStillCommits(t *testing.T) {
	rec, tp := newTracerProvider()
	f := newFixture(t, downTransport{}, func(p usecase.EventPublisher) usecase.EventPublisher {
		return traced.NewEventPublisher(p, tp)
	})
	svc := traced.NewMoneyTransferService(f.svc, tp)

	record, err := svc.TransferFunds(context.Background(), "A", "B", decimal.NewFromInt(30))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Amount.Equal(decimal.NewFromInt(30)))

	a, err := f.store.Get(context.Background(), "A")
	require.NoError(t, err)
	b, err := f.store.Get(context.Background(), "B")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(70)))
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(30)))

	assert.Equal(t, map[string]int{"EventPublisher.Publish": 1}, spanErrors(rec))

	var publishSpan sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if s.Name() == "EventPublisher.Publish" {
			publishSpan = s
		}
	}
	require.NotNil(t, publishSpan)
	assert.Contains(t, publishSpan.Status().Description, "transport unavailable")
	assert.Equal(t, "MoneyTransferService.TransferFunds", publishSpanParentName(t, rec, publishSpan))
}

func publishSpanParentName(t *testing.T, rec *tracetest.SpanRecorder, child sdktrace.ReadOnlySpan) string {
	t.Helper()
	for _, s := range rec.Ended() {
		if s.SpanContext().SpanID() == child.Parent().SpanID() {
			return s.Name()
		}
	}
	return ""
}

func TestDecoratedMatchesBare(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		amount int64
	}{
		{"success", "A", "B", 30},
		{"insufficient funds", "A", "B", 500},
		{"same account", "A", "A", 10},
		{"unknown account", "A", "ghost", 10},
		{"invalid amount", "A", "B", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bare := newFixture(t, okTransport{}, nil)
			rec, tp := newTracerProvider()
			decorated := traced.NewMoneyTransferService(newFixture(t, okTransport{}, nil).svc, tp)

			amount := decimal.NewFromInt(tt.amount)
			wantRecord, wantErr := bare.svc.TransferFunds(context.Background(), tt.source, tt.target, amount)
			gotRecord, gotErr := decorated.TransferFunds(context.Background(), tt.source, tt.target, amount)

			assert.Equal(t, wantRecord, gotRecord)
			if wantErr == nil {
				assert.NoError(t, gotErr)
			} else {
				require.Error(t, gotErr)
				assert.Equal(t, wantErr.Error(), gotErr.Error())
			}

			spans := rec.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "MoneyTransferService.TransferFunds", spans[0].Name())
			assert.Equal(t, wantErr != nil, spans[0].Status().Code == codes.Error)
		})
	}
}

func TestDecoratedDepositPropagatesErrorsUnchanged(t *testing.T) {
	rec, tp := newTracerProvider()
	svc := traced.NewMoneyTransferService(newFixture(t, okTransport{}, nil).svc, tp)

	err := svc.DepositFunds(context.Background(), "A", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	require.NoError(t, svc.DepositFunds(context.Background(), "B", decimal.NewFromInt(5)))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEqual(t, codes.Error, spans[1].Status().Code)
}

type stubCredit struct {
	assessment *domain.CreditAssessment
	err        error
}

func (s stubCredit) CheckCredit(context.Context, string) (*domain.CreditAssessment, error) {
	return s.assessment, s.err
}

func TestCreditProviderUsesSameMechanism(t *testing.T) {
	rec, tp := newTracerProvider()
	want := &domain.CreditAssessment{AccountID: "A", Score: 700, Approved: true}

	got, err := traced.NewCreditProvider(stubCredit{assessment: want}, tp).CheckCredit(context.Background(), "A")
	require.NoError(t, err)
	assert.Same(t, want, got)

	_, err = traced.NewCreditProvider(stubCredit{err: domain.ErrAccountNotFound}, tp).CheckCredit(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	assert.Equal(t, map[string]int{"CreditProvider.CheckCredit": 1}, spanErrors(rec))
	assert.Len(t, rec.Ended(), 2)
}
