package notification

import (
	"context"

	"github.com/google/uuid"

	id "hopecycle/pkg/domain"
)

// Store persists notifications together with their outbox entries. Append
// joins any transaction riding the context, which is what makes the outbox
// transactional: the notification exists iff the transition committed.
type Store interface {
	Append(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID id.UserID) (int, error)
	MarkRead(ctx context.Context, userID id.UserID, ids []id.NotificationID) error
	MarkAllRead(ctx context.Context, userID id.UserID) error

	NextOutbox(ctx context.Context, limit int) ([]*OutboxEntry, error)
	MarkDispatched(ctx context.Context, ids []uuid.UUID) error
}
