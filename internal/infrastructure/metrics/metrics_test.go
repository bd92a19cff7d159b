package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/usecase"
)

var _ usecase.MetricsRecorder = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveLedgerOperation(usecase.OperationTransfer, time.Millisecond, nil)
	m.RecordTransfer(decimal.NewFromInt(30))
	m.RecordEventPublished("transfer-completed")
	m.ObserveHTTPRequest("POST", "/api/v1/transfers", 201, time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewOnSeparateRegistries(t *testing.T) {
	// Registering twice on the same registry would panic.
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestLedgerOutcomeLabels(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLedgerOperation(usecase.OperationDeposit, 0, nil)
	m.ObserveLedgerOperation(usecase.OperationTransfer, 0, fmt.Errorf("wrap: %w", domain.ErrInsufficientFunds))
	m.ObserveLedgerOperation(usecase.OperationTransfer, 0, errors.New("boom"))

	if got := testutil.ToFloat64(m.LedgerOperations.WithLabelValues(usecase.OperationDeposit, "success")); got != 1 {
		t.Errorf("deposit success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LedgerOperations.WithLabelValues(usecase.OperationTransfer, "insufficient_funds")); got != 1 {
		t.Errorf("insufficient funds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LedgerOperations.WithLabelValues(usecase.OperationTransfer, "error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}

func TestPublishAndConsumeCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordPublishFailure("deposit-received", "timeout")
	m.RecordPublishFailure("deposit-received", "timeout")
	m.RecordEventConsumed("deposit-received", "processed")

	if got := testutil.ToFloat64(m.PublishFailures.WithLabelValues("deposit-received", "timeout")); got != 2 {
		t.Errorf("publish failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.EventsConsumed.WithLabelValues("deposit-received", "processed")); got != 1 {
		t.Errorf("consumed = %v, want 1", got)
	}
}
