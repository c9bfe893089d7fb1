package broadcast

import (
	"context"

	id "hopecycle/pkg/domain"
)

// Store persists NGO broadcast appeals.
type Store interface {
	Create(ctx context.Context, b *Broadcast) error
	FindByID(ctx context.Context, broadcastID id.BroadcastID) (*Broadcast, error)
	Update(ctx context.Context, b *Broadcast) error
	Delete(ctx context.Context, broadcastID id.BroadcastID) error
	ListByNGO(ctx context.Context, ngoID id.UserID) ([]*Broadcast, error)
	// ListActive returns open appeals, newest first.
	ListActive(ctx context.Context) ([]*Broadcast, error)
}
