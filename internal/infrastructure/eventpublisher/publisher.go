// Package eventpublisher delivers domain events to an external transport.
package eventpublisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/moneytransfer/internal/domain"
)

// DefaultTopicPrefix namespaces destination topics.
const DefaultTopicPrefix = "moneytransfer"

// Transport sends an encoded payload to a named destination.
// Send must return once ctx is done.
type Transport interface {
	Send(ctx context.Context, payload []byte, topic string) error
}

// Config for BrokerPublisher.
type Config struct {
	Transport   Transport
	TopicPrefix string
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// BrokerPublisher implements usecase.EventPublisher over a Transport.
type BrokerPublisher struct {
	transport   Transport
	topicPrefix string
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewBrokerPublisher creates a new BrokerPublisher.
func NewBrokerPublisher(cfg Config) *BrokerPublisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	return &BrokerPublisher{
		transport:   cfg.Transport,
		topicPrefix: cfg.TopicPrefix,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

// Topic returns the destination for an event type.
func (p *BrokerPublisher) Topic(eventType domain.EventType) string {
	return Topic(p.topicPrefix, eventType)
}

// Topic joins prefix and event type into a destination name.
func Topic(prefix string, eventType domain.EventType) string {
	return prefix + "." + string(eventType)
}

// Publish sends the event and waits at most the configured timeout,
// even when the transport ignores context cancellation.
func (p *BrokerPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}

	topic := p.Topic(event.Type)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.transport.Send(ctx, payload, topic)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err == nil {
		p.logger.Debug().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Str("topic", topic).
			Msg("event published")
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", domain.ErrPublishTimeout, topic, p.timeout)
	}

	return fmt.Errorf("%w: %s: %w", domain.ErrTransportUnavailable, topic, err)
}

// NoopPublisher discards every event.
type NoopPublisher struct {
	logger zerolog.Logger
}

// NewNoopPublisher creates a new NoopPublisher.
func NewNoopPublisher(logger zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

// Publish drops the event.
func (p *NoopPublisher) Publish(_ context.Context, event domain.DomainEvent) error {
	p.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Msg("event discarded, publishing disabled")
	return nil
}
