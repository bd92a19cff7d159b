package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateTransfer(t *testing.T) {
	tests := []struct {
		name        string
		sourceID    string
		targetID    string
		amount      decimal.Decimal
		expectError error
	}{
		{
			name:     "valid transfer",
			sourceID: "account-1",
			targetID: "account-2",
			amount:   decimal.NewFromInt(100),
		},
		{
			name:        "same account",
			sourceID:    "account-1",
			targetID:    "account-1",
			amount:      decimal.NewFromInt(100),
			expectError: ErrSameAccountTransfer,
		},
		{
			name:        "same account wins over bad amount",
			sourceID:    "account-1",
			targetID:    "account-1",
			amount:      decimal.NewFromInt(-5),
			expectError: ErrSameAccountTransfer,
		},
		{
			name:        "zero amount",
			sourceID:    "account-1",
			targetID:    "account-2",
			amount:      decimal.Zero,
			expectError: ErrInvalidAmount,
		},
		{
			name:        "negative amount",
			sourceID:    "account-1",
			targetID:    "account-2",
			amount:      decimal.NewFromInt(-100),
			expectError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransfer(tt.sourceID, tt.targetID, tt.amount)

			if tt.expectError == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestNewTransferCompletedEvent(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := TransferRecord{
		ID:              "tr-1",
		SourceAccountID: "a",
		TargetAccountID: "b",
		Amount:          decimal.NewFromInt(30),
		TransferredAt:   at,
		Status:          TransferStatusCompleted,
	}

	event := NewTransferCompletedEvent("ev-1", record, 3*time.Second)

	if event.Type != EventTypeTransferCompleted {
		t.Errorf("expected type %s, got %s", EventTypeTransferCompleted, event.Type)
	}
	if len(event.AccountIDs) != 2 || event.AccountIDs[0] != "a" || event.AccountIDs[1] != "b" {
		t.Errorf("unexpected account ids %v", event.AccountIDs)
	}
	if event.Transfer == nil || event.Transfer.ID != "tr-1" {
		t.Fatalf("expected transfer record to be attached, got %+v", event.Transfer)
	}
	if !event.DeliverAt().Equal(at.Add(3 * time.Second)) {
		t.Errorf("unexpected deliver time %s", event.DeliverAt())
	}
}

func TestNewDepositReceivedEvent(t *testing.T) {
	at := time.Now().UTC()
	event := NewDepositReceivedEvent("ev-2", "a", decimal.NewFromInt(5), at)

	if event.Type != EventTypeDepositReceived {
		t.Errorf("expected type %s, got %s", EventTypeDepositReceived, event.Type)
	}
	if event.Transfer != nil {
		t.Error("deposit event must not carry a transfer record")
	}
	if event.DeliveryDelay != 0 {
		t.Errorf("expected no delivery delay, got %s", event.DeliveryDelay)
	}
	if !event.DeliverAt().Equal(at) {
		t.Errorf("expected deliver time %s, got %s", at, event.DeliverAt())
	}
}
