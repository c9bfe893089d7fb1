package auth

import (
	"time"

	id "hopecycle/pkg/domain"
)

// Session is one device login. Tokens carry the session ID so logout can
// revoke a single device without touching the others.
type Session struct {
	ID         id.SessionID `json:"id"`
	UserID     id.UserID    `json:"user_id"`
	Role       string       `json:"role"`
	Device     string       `json:"device"`
	IPAddress  string       `json:"ip_address,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	LastSeenAt time.Time    `json:"last_seen_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

// SessionSummary is the per-device view returned to the account owner.
type SessionSummary struct {
	SessionID  string    `json:"session_id"`
	Device     string    `json:"device"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	IsCurrent  bool      `json:"is_current"`
}
