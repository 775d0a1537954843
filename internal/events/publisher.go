// Package events publishes record-refresh events to Redis Streams so other
// dashboard services can react to fresh data without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/finfeed/internal/logger"
)

// StreamName is the Redis stream all refresh events are appended to.
const StreamName = "finfeed:events"

// asyncPublishTimeout bounds async publish operations.
const asyncPublishTimeout = 5 * time.Second

// EventType identifies the kind of refresh event.
type EventType string

const (
	// RecordRefreshed fires after a validated live fetch commits a record.
	RecordRefreshed EventType = "record.refreshed"
)

// RefreshEvent is the payload appended to the stream.
type RefreshEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	// Domain is the source name (stock, crypto).
	Domain string `json:"domain"`
	// ID is the refreshed identifier (AAPL, bitcoin).
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes refresh events to Redis Streams. A nil Publisher is a
// valid no-op, so callers never need to branch on the events feature flag.
type Publisher struct {
	client *redis.Client
	log    logger.Logger
}

// NewPublisher creates an event publisher. Returns nil if client is nil.
func NewPublisher(client *redis.Client, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client, log: log}
}

// Publish appends an event to the stream, filling in the ID and timestamp
// when the caller left them zero.
func (p *Publisher) Publish(ctx context.Context, event RefreshEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.EventType == "" {
		event.EventType = RecordRefreshed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]any{
			"event": string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		if p.log != nil {
			p.log.Error("Failed to publish event",
				logger.String("event_type", string(event.EventType)),
				logger.String("domain", event.Domain),
				logger.String("id", event.ID),
				logger.Error(publishErr),
			)
		}
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	if p.log != nil {
		p.log.Debug("Published refresh event",
			logger.String("domain", event.Domain),
			logger.String("id", event.ID),
			logger.String("stream_id", result.Val()),
		)
	}

	return nil
}

// PublishAsync publishes an event in the background. Errors are logged, never
// returned; refresh hooks must not block the fetch path.
func (p *Publisher) PublishAsync(event RefreshEvent) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil && p.log != nil {
			p.log.Error("Async publish failed",
				logger.String("domain", event.Domain),
				logger.String("id", event.ID),
				logger.Error(err),
			)
		}
	}()
}
