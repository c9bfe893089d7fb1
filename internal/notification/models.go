package notification

import (
	"time"

	"github.com/google/uuid"

	id "hopecycle/pkg/domain"
)

// Type routes a notification to the right client surface.
type Type string

const (
	TypeDonation Type = "donation"
	TypeRequest  Type = "request"
	TypeMessage  Type = "message"
)

// Notification is one entry on a user's bell. Rows are written in the same
// transaction as the state change that caused them; delivery to external
// sinks happens through the outbox, never inline.
type Notification struct {
	ID        id.NotificationID
	UserID    id.UserID
	Type      Type
	Title     string
	Body      string
	Link      string
	IsRead    bool
	CreatedAt time.Time
}

// OutboxEntry is the pending-delivery record for one notification. Entries
// survive process restarts; the worker marks them dispatched after every sink
// accepted the payload.
type OutboxEntry struct {
	ID             uuid.UUID
	NotificationID id.NotificationID
	UserID         id.UserID
	Payload        []byte
	CreatedAt      time.Time
}
