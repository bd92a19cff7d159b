package eventpublisher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/moneytransfer/internal/domain"
)

func TestEncodeDecodeTransferEvent(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	record := domain.TransferRecord{
		ID:              "tr-1",
		SourceAccountID: "A",
		TargetAccountID: "B",
		Amount:          decimal.RequireFromString("30.25"),
		TransferredAt:   at,
		Status:          domain.TransferStatusCompleted,
	}
	event := domain.NewTransferCompletedEvent("evt-9", record, 3*time.Second)

	payload, err := Encode(event)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"amount":"30.25"`)
	assert.Contains(t, string(payload), `"delay_ms":3000`)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	require.NotNil(t, decoded.Transfer)
	assert.Equal(t, "tr-1", decoded.Transfer.ID)
	assert.Equal(t, domain.TransferStatusCompleted, decoded.Transfer.Status)
	assert.Equal(t, 3*time.Second, decoded.DeliveryDelay)
	assert.True(t, decoded.DeliverAt().Equal(at.Add(3*time.Second)))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"amount":"1"}`))
	assert.Error(t, err)
}
