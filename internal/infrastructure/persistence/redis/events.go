package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
)

// publishTimeout bounds one PUBLISH; events are fire and forget.
const publishTimeout = 2 * time.Second

// EventPublisher fans domain events out on a Redis channel so other players
// or dashboards sharing the store can follow a learner.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

var _ shared.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher publishes on channel, usually "<namespace>:<profile>:events".
func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Channel returns the channel name.
func (p *EventPublisher) Channel() string {
	return p.channel
}

// Publish implements shared.EventPublisher.
func (p *EventPublisher) Publish(event shared.Event) error {
	env, err := shared.NewEnvelope(event, shared.CorrelationOf(event))
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscribe blocks delivering envelopes published on channel to handler until
// ctx is done. Malformed messages are skipped.
func Subscribe(ctx context.Context, client *redis.Client, channel string, handler func(shared.EventEnvelope)) error {
	pubsub := client.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reading.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}

			var env shared.EventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			handler(env)
		}
	}
}
