package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/shared/goroutine"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

const outcomeChannel = "helpdesk:ingest:outcome"

// OutcomeEvent is one terminal ingestion outcome as published on Redis.
type OutcomeEvent struct {
	ingestion.Outcome
	Timestamp  int64  `json:"timestamp"`
	InstanceID string `json:"instance_id,omitempty"`
}

// RedisOutcomeBus publishes outcomes so dashboards and other instances can
// follow ingestion without reading logs.
type RedisOutcomeBus struct {
	client     *redis.Client
	logger     logger.Interface
	instanceID string
	now        func() time.Time
}

func NewRedisOutcomeBus(client *redis.Client, logger logger.Interface) *RedisOutcomeBus {
	return &RedisOutcomeBus{
		client:     client,
		logger:     logger,
		instanceID: uuid.NewString(),
		now:        time.Now,
	}
}

// Report implements ingestion.OutcomeReporter. Publishing is best effort; a
// failure is logged and never affects the message.
func (b *RedisOutcomeBus) Report(ctx context.Context, outcome ingestion.Outcome) {
	if err := b.Publish(ctx, outcome); err != nil {
		b.logger.Warnw("failed to publish ingest outcome",
			"message_id", outcome.MessageID,
			"error", err,
		)
	}
}

func (b *RedisOutcomeBus) Publish(ctx context.Context, outcome ingestion.Outcome) error {
	event := OutcomeEvent{
		Outcome:    outcome,
		Timestamp:  b.now().UTC().UnixMilli(),
		InstanceID: b.instanceID,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome event: %w", err)
	}
	if err := b.client.Publish(ctx, outcomeChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish outcome event: %w", err)
	}
	return nil
}

// Subscribe delivers outcome events to handler until ctx is cancelled,
// reconnecting with exponential backoff when the subscription drops.
func (b *RedisOutcomeBus) Subscribe(ctx context.Context, handler func(event OutcomeEvent)) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribe(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("outcome subscription disconnected, reconnecting",
			"channel", outcomeChannel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisOutcomeBus) subscribe(ctx context.Context, handler func(event OutcomeEvent)) error {
	sub := b.client.Subscribe(ctx, outcomeChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", outcomeChannel, err)
	}
	b.logger.Infow("subscribed to outcome channel", "channel", outcomeChannel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event OutcomeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal outcome event", "payload", msg.Payload, "error", err)
				continue
			}
			func() {
				defer goroutine.Recover(b.logger, "outcome-handler", nil)
				handler(event)
			}()
		}
	}
}
