package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hopecycle/internal/message"
	"hopecycle/internal/platform/middleware"
	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/httputil"
)

// Handler exposes direct messaging.
type Handler struct {
	service *message.Service
	logger  *slog.Logger
}

func New(service *message.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/messages", h.handleSend)
	r.Get("/messages/partners", h.handlePartners)
	r.Post("/messages/read", h.handleMarkRead)
	r.Get("/messages/{userID}", h.handleConversation)
}

type sendRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type messageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  string `json:"created_at"`
}

func toMessageResponse(m *message.Message) messageResponse {
	return messageResponse{
		ID:         m.ID.String(),
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	receiverID, err := id.ParseUserID(req.ReceiverID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	m, err := h.service.Send(ctx, middleware.GetUserID(ctx), receiverID, req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toMessageResponse(m))
}

func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	otherID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	msgs, err := h.service.Conversation(ctx, middleware.GetUserID(ctx), otherID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req markReadRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ids := make([]id.MessageID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		mid, err := id.ParseMessageID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ids = append(ids, mid)
	}

	if err := h.service.MarkRead(ctx, middleware.GetUserID(ctx), ids); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type partnerResponse struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	LastMessage string `json:"last_message"`
	LastAt      string `json:"last_at"`
	UnreadCount int    `json:"unread_count"`
}

func (h *Handler) handlePartners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	partners, err := h.service.Partners(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]partnerResponse, 0, len(partners))
	for _, p := range partners {
		out = append(out, partnerResponse{
			UserID:      p.UserID.String(),
			Name:        p.Name,
			LastMessage: p.LastMessage,
			LastAt:      p.LastAt.UTC().Format(time.RFC3339),
			UnreadCount: p.UnreadCount,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
