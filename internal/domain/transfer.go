package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the outcome recorded for a transfer.
type TransferStatus string

const TransferStatusCompleted TransferStatus = "completed"

// TransferRecord is the immutable receipt of a committed transfer.
type TransferRecord struct {
	ID              string
	SourceAccountID string
	TargetAccountID string
	Amount          decimal.Decimal
	TransferredAt   time.Time
	Status          TransferStatus
}

// ValidateTransfer checks a transfer request before any account is read.
// Same-account is reported ahead of a bad amount.
func ValidateTransfer(sourceID, targetID string, amount decimal.Decimal) error {
	if sourceID == targetID {
		return ErrSameAccountTransfer
	}

	return ValidateAmount(amount)
}
