package eventpublisher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/moneytransfer/internal/domain"
)

// envelope is the wire form of a domain event.
type envelope struct {
	ID         string           `json:"id"`
	Type       domain.EventType `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	AccountIDs []string         `json:"account_ids"`
	Amount     decimal.Decimal  `json:"amount"`
	Transfer   *transferPayload `json:"transfer,omitempty"`
	DelayMS    int64            `json:"delay_ms,omitempty"`
}

type transferPayload struct {
	ID              string          `json:"id"`
	SourceAccountID string          `json:"source_account_id"`
	TargetAccountID string          `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransferredAt   time.Time       `json:"transferred_at"`
	Status          string          `json:"status"`
}

// Encode serializes an event to its JSON envelope.
func Encode(event domain.DomainEvent) ([]byte, error) {
	env := envelope{
		ID:         event.ID,
		Type:       event.Type,
		OccurredAt: event.OccurredAt,
		AccountIDs: event.AccountIDs,
		Amount:     event.Amount,
		DelayMS:    event.DeliveryDelay.Milliseconds(),
	}

	if t := event.Transfer; t != nil {
		env.Transfer = &transferPayload{
			ID:              t.ID,
			SourceAccountID: t.SourceAccountID,
			TargetAccountID: t.TargetAccountID,
			Amount:          t.Amount,
			TransferredAt:   t.TransferredAt,
			Status:          string(t.Status),
		}
	}

	return json.Marshal(env)
}

// Decode parses a JSON envelope back into an event.
func Decode(payload []byte) (domain.DomainEvent, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return domain.DomainEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if env.ID == "" || env.Type == "" {
		return domain.DomainEvent{}, fmt.Errorf("decode event: missing id or type")
	}

	event := domain.DomainEvent{
		ID:            env.ID,
		Type:          env.Type,
		OccurredAt:    env.OccurredAt,
		AccountIDs:    env.AccountIDs,
		Amount:        env.Amount,
		DeliveryDelay: time.Duration(env.DelayMS) * time.Millisecond,
	}

	if t := env.Transfer; t != nil {
		event.Transfer = &domain.TransferRecord{
			ID:              t.ID,
			SourceAccountID: t.SourceAccountID,
			TargetAccountID: t.TargetAccountID,
			Amount:          t.Amount,
			TransferredAt:   t.TransferredAt,
			Status:          domain.TransferStatus(t.Status),
		}
	}

	return event, nil
}
