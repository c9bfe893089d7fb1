package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hopecycle/internal/notification"
	"hopecycle/internal/platform/middleware"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/platform/httputil"
)

// Handler exposes a user's notification feed.
type Handler struct {
	store  notification.Store
	logger *slog.Logger
}

func New(store notification.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Get("/notifications/unread-count", h.handleUnreadCount)
	r.Post("/notifications/read", h.handleMarkRead)
}

type notificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Link      string `json:"link"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	items, err := h.store.ListByUser(ctx, userID, 100)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list notifications"))
		return
	}

	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, notificationResponse{
			ID:        n.ID.String(),
			Type:      string(n.Type),
			Title:     n.Title,
			Body:      n.Body,
			Link:      n.Link,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.store.UnreadCount(ctx, middleware.GetUserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count unread notifications",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to count notifications"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

type markReadRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req markReadRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if req.All {
		if err := h.store.MarkAllRead(ctx, userID); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to mark notifications read"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ids := make([]id.NotificationID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		nid, err := id.ParseNotificationID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ids = append(ids, nid)
	}
	if err := h.store.MarkRead(ctx, userID, ids); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to mark notifications read"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
