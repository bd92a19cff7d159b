package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
)

const namespace = "moneytransfer"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	LedgerOperations *prometheus.CounterVec
	LedgerDuration   *prometheus.HistogramVec
	TransferAmount   prometheus.Histogram
	DepositAmount    prometheus.Histogram

	// Event metrics
	EventsPublished *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
	EventsConsumed  *prometheus.CounterVec

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LedgerOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Total ledger operations by type and outcome",
			},
			[]string{"operation", "outcome"},
		),
		LedgerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_operation_duration_seconds",
				Help:      "Duration of ledger operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_amount",
			Help:      "Committed transfer amounts",
			Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		DepositAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "deposit_amount",
			Help:      "Committed deposit amounts",
			Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Domain events handed to the transport",
			},
			[]string{"event_type"},
		),
		PublishFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_publish_failures_total",
				Help:      "Domain events that could not be published",
			},
			[]string{"event_type", "reason"},
		),
		EventsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_consumed_total",
				Help:      "Domain events read back by the consumer",
			},
			[]string{"event_type", "outcome"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveLedgerOperation records one ledger call.
func (m *Metrics) ObserveLedgerOperation(operation string, duration time.Duration, err error) {
	m.LedgerOperations.WithLabelValues(operation, outcome(err)).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordTransfer(amount decimal.Decimal) {
	m.TransferAmount.Observe(amount.InexactFloat64())
}

func (m *Metrics) RecordDeposit(amount decimal.Decimal) {
	m.DepositAmount.Observe(amount.InexactFloat64())
}

func (m *Metrics) RecordEventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) RecordPublishFailure(eventType, reason string) {
	m.PublishFailures.WithLabelValues(eventType, reason).Inc()
}

func (m *Metrics) RecordEventConsumed(eventType, outcome string) {
	m.EventsConsumed.WithLabelValues(eventType, outcome).Inc()
}

// ObserveHTTPRequest records one served request under its route pattern.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) AddInFlight(delta float64) {
	m.HTTPInFlight.Add(delta)
}

func (m *Metrics) RecordRateLimited() {
	m.RateLimitHits.Inc()
}

// outcome is a low-cardinality label for a ledger error.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrSameAccountTransfer):
		return "invalid"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrLedgerContention):
		return "contention"
	default:
		return "error"
	}
}
