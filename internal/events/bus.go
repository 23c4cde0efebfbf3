package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Bus delivers events between the services over Redis pub/sub channels.
// Publishing is synchronous: an error reaches the caller, which decides
// whether the enclosing operation fails. Consumption is best-effort,
// at-most-once: handler and decode failures are logged and the message
// is dropped, never redelivered.
type Bus struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewBus creates a Bus on an existing Redis client.
func NewBus(rdb *redis.Client, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{rdb: rdb, logger: logger}
}

// Publish marshals the payload and publishes it on the topic's channel.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", topic, err)
	}
	if err := b.rdb.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	b.logger.Info("event published", "topic", topic)
	return nil
}

// Handler consumes one raw event payload. A returned error means the
// message is dropped; it is never requeued.
type Handler func(ctx context.Context, data []byte) error

// Subscribe starts a consumer goroutine for the topic. It returns once the
// subscription is established; the consumer runs until ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, topic string, handle Handler) error {
	sub := b.rdb.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handle(ctx, []byte(msg.Payload)); err != nil {
					b.logger.Error("event handler failed, dropping message",
						"topic", topic, "error", err)
				}
			}
		}
	}()

	b.logger.Info("listening on topic", "topic", topic)
	return nil
}
