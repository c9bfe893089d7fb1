package testutil

import (
	"context"
	"net/http"

	"hopecycle/internal/platform/middleware"
	id "hopecycle/pkg/domain"
)

// WithAuth injects user ID, session ID, and role into the request context,
// simulating what RequireAuth does for authenticated requests. Invalid IDs
// are silently ignored.
func WithAuth(req *http.Request, userID, sessionID, role string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		if parsed, err := id.ParseUserID(userID); err == nil {
			ctx = context.WithValue(ctx, middleware.ContextKeyUserID, parsed)
		}
	}
	if sessionID != "" {
		if parsed, err := id.ParseSessionID(sessionID); err == nil {
			ctx = context.WithValue(ctx, middleware.ContextKeySessionID, parsed)
		}
	}
	if role != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	}
	return req.WithContext(ctx)
}

// WithUser injects a typed user ID directly.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	return req.WithContext(ctx)
}

// PassthroughTx satisfies the services' TxRunner in tests backed by memory
// stores, which synchronize themselves.
type PassthroughTx struct{}

func (PassthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
