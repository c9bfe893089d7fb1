package worker

import (
	"context"
	"fmt"

	"hopecycle/internal/notification"
	platformredis "hopecycle/internal/platform/redis"
)

// RedisFanout publishes each entry on a per-user channel so connected clients
// can bump badge counts live. Pub/sub is fire-and-listen; durable delivery is
// the notifications table itself.
type RedisFanout struct {
	client *platformredis.Client
}

func NewRedisFanout(client *platformredis.Client) *RedisFanout {
	if client == nil {
		return nil
	}
	return &RedisFanout{client: client}
}

// Channel returns the pub/sub channel name for a user.
func Channel(userID string) string { return "notify:" + userID }

func (s *RedisFanout) Publish(ctx context.Context, entry *notification.OutboxEntry) error {
	if err := s.client.Publish(ctx, Channel(entry.UserID.String()), entry.Payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
