package message

import (
	"context"

	id "hopecycle/pkg/domain"
)

// Store persists direct messages.
type Store interface {
	Create(ctx context.Context, m *Message) error
	// ListConversation returns every message between the two users,
	// chronological.
	ListConversation(ctx context.Context, a, b id.UserID) ([]*Message, error)
	// MarkRead flags the given messages read, but only those addressed to
	// the receiver.
	MarkRead(ctx context.Context, receiverID id.UserID, ids []id.MessageID) error
	// ListPartners returns the user's counterparties, most recent
	// conversation first, with unread counts.
	ListPartners(ctx context.Context, userID id.UserID) ([]*Partner, error)
}
