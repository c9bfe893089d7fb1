package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hopecycle/internal/broadcast"
	"hopecycle/internal/platform/middleware"
	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/httputil"
)

// Handler exposes broadcast appeals: NGOs manage them, donors browse the
// nearby feed.
type Handler struct {
	service *broadcast.Service
	logger  *slog.Logger
}

func New(service *broadcast.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterDonor mounts the donor feed.
func (h *Handler) RegisterDonor(r chi.Router) {
	r.Get("/broadcasts", h.handleListActive)
}

// RegisterNGO mounts the NGO management routes.
func (h *Handler) RegisterNGO(r chi.Router) {
	r.Post("/broadcasts", h.handleCreate)
	r.Get("/broadcasts/mine", h.handleListMine)
	r.Put("/broadcasts/{broadcastID}", h.handleUpdate)
	r.Delete("/broadcasts/{broadcastID}", h.handleDelete)
}

type broadcastRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Status      string `json:"status,omitempty"`
}

type broadcastResponse struct {
	ID          string `json:"id"`
	NGOID       string `json:"ngo_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toBroadcastResponse(b *broadcast.Broadcast) broadcastResponse {
	return broadcastResponse{
		ID:          b.ID.String(),
		NGOID:       b.NGOID.String(),
		Title:       b.Title,
		Description: b.Description,
		Category:    b.Category,
		Priority:    string(b.Priority),
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req broadcastRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	b, err := h.service.Create(ctx, middleware.GetUserID(ctx), broadcast.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    broadcast.Priority(req.Priority),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "broadcast created",
		"request_id", middleware.GetRequestID(ctx),
		"broadcast_id", b.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toBroadcastResponse(b))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	broadcastID, err := id.ParseBroadcastID(chi.URLParam(r, "broadcastID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req broadcastRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Status == "" {
		req.Status = string(broadcast.StatusActive)
	}

	b, err := h.service.Update(ctx, middleware.GetUserID(ctx), broadcastID, broadcast.UpdateParams{
		CreateParams: broadcast.CreateParams{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Priority:    broadcast.Priority(req.Priority),
		},
		Status: broadcast.Status(req.Status),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBroadcastResponse(b))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	broadcastID, err := id.ParseBroadcastID(chi.URLParam(r, "broadcastID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), broadcastID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bs, err := h.service.ListByNGO(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]broadcastResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBroadcastResponse(b))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type rankedBroadcastResponse struct {
	broadcastResponse
	NGOName         string  `json:"ngo_name"`
	DistanceKm      float64 `json:"distance_km"`
	DistanceUnknown bool    `json:"distance_unknown"`
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ranked, err := h.service.ListActiveNearby(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]rankedBroadcastResponse, 0, len(ranked))
	for _, rb := range ranked {
		out = append(out, rankedBroadcastResponse{
			broadcastResponse: toBroadcastResponse(rb.Broadcast),
			NGOName:           rb.NGOName,
			DistanceKm:        rb.DistanceKm,
			DistanceUnknown:   rb.Unknown,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
