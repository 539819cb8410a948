package redisad

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"safeher_travel/internal/domain"
)

const SOSChannel = "safeher:sos:events"

// EventBus publishes SOS lifecycle events over Redis pub/sub.
type EventBus struct {
	c       *redis.Client
	channel string
}

func NewEventBus(c *redis.Client) *EventBus { return &EventBus{c: c, channel: SOSChannel} }

func (b *EventBus) Publish(ctx context.Context, e domain.SOSEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.c.Publish(ctx, b.channel, payload).Err()
}

// Subscribe blocks, delivering events to handle until ctx is cancelled.
// Handler errors are logged; undecodable payloads are skipped.
func (b *EventBus) Subscribe(ctx context.Context, handle func(context.Context, domain.SOSEvent) error) error {
	sub := b.c.Subscribe(ctx, b.channel)
	defer sub.Close()

	// wait for the subscription confirmation so no publish is missed after return
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e domain.SOSEvent
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("drop undecodable event")
				continue
			}
			if err := handle(ctx, e); err != nil {
				log.Error().Err(err).Str("type", e.Type).Str("sos_id", e.Alert.ID).Msg("event handler failed")
			}
		}
	}
}
