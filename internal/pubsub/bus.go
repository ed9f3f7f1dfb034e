package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Broadcaster fans a payload out to every member of a group, on this process
// and on every other process sharing the same redis bus. Per sender, payloads
// published to the same group arrive in publish order.
type Broadcaster interface {
	Broadcast(ctx context.Context, group string, payload interface{}) error
}

// Bus publishes group broadcasts to redis pub/sub. The Subscriber on each
// process (this one included) receives them and fans in to its local hub.
type Bus struct {
	client *redis.Client
	prefix string
}

// NewBus creates the broadcast bus on an existing redis client.
func NewBus(client *redis.Client, prefix string) *Bus {
	if prefix == "" {
		prefix = "broadcast"
	}
	return &Bus{client: client, prefix: prefix}
}

func (b *Bus) channel(group string) string {
	return fmt.Sprintf("%s:%s", b.prefix, group)
}

// Broadcast marshals the payload and publishes it to the group's channel.
func (b *Bus) Broadcast(ctx context.Context, group string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel(group), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to group %s: %w", group, err)
	}
	return nil
}
