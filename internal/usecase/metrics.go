package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

// NopMetrics discards all metrics.
type NopMetrics struct{}

func (NopMetrics) ObserveLedgerOperation(string, time.Duration, error) {}
func (NopMetrics) RecordTransfer(decimal.Decimal)                      {}
func (NopMetrics) RecordDeposit(decimal.Decimal)                       {}
func (NopMetrics) RecordEventPublished(string)                         {}
func (NopMetrics) RecordPublishFailure(string, string)                 {}
