package eventconsumer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/moneytransfer/internal/domain"
)

// LogHandler reports every consumed event to the log.
func LogHandler(logger zerolog.Logger) Handler {
	return HandlerFunc(func(_ context.Context, event domain.DomainEvent) error {
		ev := logger.Info().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Strs("account_ids", event.AccountIDs).
			Str("amount", event.Amount.String()).
			Time("occurred_at", event.OccurredAt)
		if event.Transfer != nil {
			ev = ev.Str("transfer_id", event.Transfer.ID)
		}
		ev.Msg("event received")
		return nil
	})
}
