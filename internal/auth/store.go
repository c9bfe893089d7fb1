package auth

import (
	"context"
	"time"

	id "hopecycle/pkg/domain"
)

// SessionStore persists live sessions. Entries expire at Session.ExpiresAt;
// deleting a session is how logout revokes a token before its JWT expiry.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*Session, error)
	Touch(ctx context.Context, sessionID id.SessionID, at time.Time) error
	Delete(ctx context.Context, sessionID id.SessionID) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*Session, error)
	DeleteAllForUser(ctx context.Context, userID id.UserID) error
}
