package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alanyoungcy/spreadbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// alertStreamMaxLen bounds the replayable alert history, enforced via
// XADD MAXLEN ~. Roughly a week of busy scanning.
const alertStreamMaxLen int64 = 10000

// subscribeBufferSize is the per-subscription buffer for relayed payloads.
const subscribeBufferSize = 128

// SignalBus carries dispatched alerts and status updates between the scanner
// and its consumers: Pub/Sub for live delivery, Streams for bounded replay.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// PublishAlert fans a dispatched alert out to both bus surfaces: the alert
// channel for live WebSocket clients and the alert stream for replay. Both
// deliveries are attempted even if one fails.
func (sb *SignalBus) PublishAlert(ctx context.Context, alert domain.Alert) error {
	payload, err := alertEnvelope(alert)
	if err != nil {
		return fmt.Errorf("redis: alert envelope %s: %w", alert.ID, err)
	}
	return errors.Join(
		sb.Publish(ctx, domain.AlertChannel, payload),
		sb.StreamAppend(ctx, domain.AlertStream, payload),
	)
}

// alertEnvelope wraps an alert in the typed envelope WebSocket clients expect.
func alertEnvelope(alert domain.Alert) ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":    "alert",
		"payload": alert,
	})
}

// Publish sends a raw payload to a Pub/Sub channel. Delivery is best-effort:
// subscribers that are not connected at publish time never see the message.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription and returns a read-only channel of
// raw payloads. Cancelling the context tears down the subscription and closes
// the returned channel.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var pubsub *redis.PubSub
	if hasPattern(channel) {
		pubsub = sb.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = sb.rdb.Subscribe(ctx, channel)
	}

	// Receive the confirmation so a dead connection fails here, not silently
	// in the relay goroutine.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, subscribeBufferSize)
	go func() {
		defer close(out)
		defer pubsub.Close()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// hasPattern reports whether the channel name contains glob-style wildcards,
// which require PSubscribe instead of Subscribe.
func hasPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}

// StreamAppend appends a payload to a stream, trimming it to approximately
// alertStreamMaxLen entries.
func (sb *SignalBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	err := sb.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: alertStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis: stream append %s: %w", stream, err)
	}
	return nil
}

// StreamRead reads up to count entries from a stream starting after lastID.
// Use "0" to replay from the beginning or "$" for new entries only. No
// available entries is an empty result, not an error. Entries without a
// payload field, or with one of an unexpected type, are skipped.
func (sb *SignalBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	results, err := sb.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   int64(count),
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: stream read %s: %w", stream, err)
	}

	var messages []domain.StreamMessage
	for _, res := range results {
		for _, entry := range res.Messages {
			data, ok := payloadBytes(entry.Values["payload"])
			if !ok {
				continue
			}
			messages = append(messages, domain.StreamMessage{
				ID:      entry.ID,
				Payload: data,
			})
		}
	}
	return messages, nil
}

// payloadBytes coerces a stream entry value into bytes.
func payloadBytes(v any) ([]byte, bool) {
	switch p := v.(type) {
	case string:
		return []byte(p), true
	case []byte:
		return p, true
	default:
		return nil, false
	}
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
