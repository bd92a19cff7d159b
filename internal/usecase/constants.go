package usecase

import "time"

const (
	// DefaultPublishTimeout bounds how long a caller waits on event publication.
	DefaultPublishTimeout = 2 * time.Second

	// DefaultTransferEventDelay is the delivery hint attached to transfer events.
	DefaultTransferEventDelay = 3 * time.Second

	// DefaultCreditApprovalThreshold is the minimum score for approval.
	DefaultCreditApprovalThreshold = 650

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyPendingMarker is stored under a key while its first request runs.
const IdempotencyPendingMarker = "processing"

// Ledger operation names used in metrics.
const (
	OperationDeposit  = "deposit"
	OperationTransfer = "transfer"
)

// PublishMode controls whether callers wait for event publication.
type PublishMode string

const (
	PublishModeSync  PublishMode = "sync"
	PublishModeAsync PublishMode = "async"
)
