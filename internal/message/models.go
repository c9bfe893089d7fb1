package message

import (
	"time"

	id "hopecycle/pkg/domain"
)

// Message is one direct message between a donor and an NGO.
type Message struct {
	ID         id.MessageID
	SenderID   id.UserID
	ReceiverID id.UserID
	Content    string
	IsRead     bool
	CreatedAt  time.Time
}

// Partner is a conversation counterparty with the unread tally for the badge.
type Partner struct {
	UserID      id.UserID
	LastMessage string
	LastAt      time.Time
	UnreadCount int
}
