package store

import (
	"context"
	"encoding/json"
	"fmt"

	"civicpulse-be/config"
	"civicpulse-be/submission"
)

// DefaultEventChannel is the Redis channel realtime events go out on.
// The websocket/SSE edge subscribes here; this service only publishes.
const DefaultEventChannel = "civicpulse:events"

// RedisBroadcaster publishes realtime events to a Redis pub/sub channel.
type RedisBroadcaster struct {
	Channel string
}

// NewRedisBroadcaster publishes on the default channel.
func NewRedisBroadcaster() *RedisBroadcaster {
	return &RedisBroadcaster{Channel: DefaultEventChannel}
}

// Publish implements submission.Broadcaster.
func (b *RedisBroadcaster) Publish(ctx context.Context, event submission.Event) error {
	if config.RedisClient == nil {
		return fmt.Errorf("redis client not connected")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return config.RedisClient.Publish(ctx, b.Channel, payload).Err()
}
