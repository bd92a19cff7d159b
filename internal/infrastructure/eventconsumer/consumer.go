// Package eventconsumer reads published domain events back from Redis streams.
package eventconsumer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/moneytransfer/internal/domain"
	"github.com/iho/moneytransfer/internal/infrastructure/eventpublisher"
)

// Handler processes one delivered event.
type Handler interface {
	Handle(ctx context.Context, event domain.DomainEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event domain.DomainEvent) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event domain.DomainEvent) error {
	return f(ctx, event)
}

// Recorder counts processed events.
type Recorder interface {
	RecordEventConsumed(eventType, outcome string)
}

// Config for Consumer.
type Config struct {
	Client    *redis.Client
	Streams   []string
	Group     string
	Name      string
	Handler   Handler
	Recorder  Recorder
	Logger    zerolog.Logger
	BatchSize int64
	Interval  time.Duration
	// MaxDelay caps how long a single message is held for its delivery hint.
	MaxDelay time.Duration

	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Consumer polls a Redis consumer group and hands events to a Handler.
type Consumer struct {
	client    *redis.Client
	streams   []string
	group     string
	name      string
	handler   Handler
	recorder  Recorder
	logger    zerolog.Logger
	batchSize int64
	interval  time.Duration
	maxDelay  time.Duration
	clock     func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a new Consumer.
func New(cfg Config) *Consumer {
	if cfg.Group == "" {
		cfg.Group = "moneytransfer"
	}
	if cfg.Name == "" {
		cfg.Name = "consumer-1"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}

	return &Consumer{
		client:    cfg.Client,
		streams:   cfg.Streams,
		group:     cfg.Group,
		name:      cfg.Name,
		handler:   cfg.Handler,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		maxDelay:  cfg.MaxDelay,
		clock:     cfg.Clock,
		sleep:     cfg.Sleep,
	}
}

// Streams returns the stream names for the given event types.
func Streams(prefix string, types ...domain.EventType) []string {
	streams := make([]string, 0, len(types))
	for _, t := range types {
		streams = append(streams, eventpublisher.Topic(prefix, t))
	}
	return streams
}

// Start creates the consumer group and polls until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info().
		Strs("streams", c.streams).
		Str("group", c.group).
		Str("consumer", c.name).
		Dur("interval", c.interval).
		Msg("event consumer started")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if err := c.Poll(ctx); err != nil {
		c.logger.Error().Err(err).Msg("error consuming events on start")
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("event consumer shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := c.Poll(ctx); err != nil {
				c.logger.Error().Err(err).Msg("error consuming events")
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	for _, stream := range c.streams {
		err := c.client.XGroupCreateMkStream(ctx, stream, c.group, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create consumer group %s on %s: %w", c.group, stream, err)
		}
	}
	return nil
}

// Poll processes one batch of messages: first those left pending for this
// consumer, then new ones.
func (c *Consumer) Poll(ctx context.Context) error {
	if len(c.streams) == 0 {
		return nil
	}

	var errs []error
	for _, start := range []string{"0", ">"} {
		if err := c.read(ctx, start); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Consumer) read(ctx context.Context, start string) error {
	streams := make([]string, 0, len(c.streams)*2)
	streams = append(streams, c.streams...)
	for range c.streams {
		streams = append(streams, start)
	}

	results, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  streams,
		Count:    c.batchSize,
		Block:    -1,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read group %s: %w", c.group, err)
	}

	for _, stream := range results {
		for _, msg := range stream.Messages {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.process(ctx, stream.Stream, msg)
		}
	}
	return nil
}

func (c *Consumer) process(ctx context.Context, stream string, msg redis.XMessage) {
	log := c.logger.With().Str("stream", stream).Str("message_id", msg.ID).Logger()

	raw, _ := msg.Values[eventpublisher.PayloadField].(string)
	event, err := eventpublisher.Decode([]byte(raw))
	if err != nil {
		log.Error().Err(err).Msg("dropping undecodable message")
		c.recorder.RecordEventConsumed("unknown", "dropped")
		c.ack(ctx, stream, msg.ID, log)
		return
	}

	if wait := c.holdFor(event); wait > 0 {
		log.Debug().Dur("wait", wait).Str("event_id", event.ID).Msg("holding event for delivery delay")
		if err := c.sleep(ctx, wait); err != nil {
			return
		}
	}

	if err := c.handler.Handle(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("handler failed, message left pending")
		c.recorder.RecordEventConsumed(string(event.Type), "failed")
		return
	}

	c.recorder.RecordEventConsumed(string(event.Type), "processed")
	c.ack(ctx, stream, msg.ID, log)
}

func (c *Consumer) holdFor(event domain.DomainEvent) time.Duration {
	wait := event.DeliverAt().Sub(c.clock())
	if wait > c.maxDelay {
		wait = c.maxDelay
	}
	return wait
}

func (c *Consumer) ack(ctx context.Context, stream, id string, log zerolog.Logger) {
	if err := c.client.XAck(ctx, stream, c.group, id).Err(); err != nil {
		log.Error().Err(err).Msg("failed to ack message")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordEventConsumed(string, string) {}
