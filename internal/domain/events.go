package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a kind of domain event.
type EventType string

// Event types
const (
	EventTypeDepositReceived   EventType = "deposit-received"
	EventTypeTransferCompleted EventType = "transfer-completed"
)

// DomainEvent describes a committed ledger change for downstream observers.
type DomainEvent struct {
	ID         string
	Type       EventType
	OccurredAt time.Time
	AccountIDs []string
	Amount     decimal.Decimal
	// Transfer is set for transfer-completed events.
	Transfer *TransferRecord
	// DeliveryDelay asks consumers to hold the event before processing it.
	DeliveryDelay time.Duration
}

// NewDepositReceivedEvent builds the event emitted after a committed deposit.
func NewDepositReceivedEvent(id, accountID string, amount decimal.Decimal, at time.Time) DomainEvent {
	return DomainEvent{
		ID:         id,
		Type:       EventTypeDepositReceived,
		OccurredAt: at,
		AccountIDs: []string{accountID},
		Amount:     amount,
	}
}

// NewTransferCompletedEvent builds the event emitted after a committed transfer.
func NewTransferCompletedEvent(id string, record TransferRecord, delay time.Duration) DomainEvent {
	return DomainEvent{
		ID:            id,
		Type:          EventTypeTransferCompleted,
		OccurredAt:    record.TransferredAt,
		AccountIDs:    []string{record.SourceAccountID, record.TargetAccountID},
		Amount:        record.Amount,
		Transfer:      &record,
		DeliveryDelay: delay,
	}
}

// DeliverAt is the earliest time a consumer should process the event.
func (e DomainEvent) DeliverAt() time.Time {
	return e.OccurredAt.Add(e.DeliveryDelay)
}
