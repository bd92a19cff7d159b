package eventpublisher

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// PayloadField is the stream entry field holding the encoded envelope.
const PayloadField = "payload"

// RedisStreamTransport appends payloads to Redis streams named after the topic.
type RedisStreamTransport struct {
	client *redis.Client
	maxLen int64
}

// NewRedisStreamTransport creates a new RedisStreamTransport.
// maxLen caps each stream approximately; 0 leaves streams unbounded.
func NewRedisStreamTransport(client *redis.Client, maxLen int64) *RedisStreamTransport {
	return &RedisStreamTransport{client: client, maxLen: maxLen}
}

// Send appends payload to the stream topic.
func (t *RedisStreamTransport) Send(ctx context.Context, payload []byte, topic string) error {
	args := &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{PayloadField: payload},
	}
	if t.maxLen > 0 {
		args.MaxLen = t.maxLen
		args.Approx = true
	}

	return t.client.XAdd(ctx, args).Err()
}

// LogTransport writes payloads to the log instead of a broker.
type LogTransport struct {
	logger zerolog.Logger
}

// NewLogTransport creates a new LogTransport.
func NewLogTransport(logger zerolog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Send logs the payload.
func (t *LogTransport) Send(_ context.Context, payload []byte, topic string) error {
	t.logger.Info().
		Str("topic", topic).
		RawJSON("payload", payload).
		Msg("EVENT PUBLISHED")
	return nil
}
