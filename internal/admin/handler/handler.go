package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hopecycle/internal/admin"
	"hopecycle/internal/platform/middleware"
	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/httputil"
)

// Handler exposes the admin console. Mount behind RequireRole(ADMIN).
type Handler struct {
	service *admin.Service
	logger  *slog.Logger
}

func New(service *admin.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/verifications", h.handlePendingVerifications)
	r.Post("/admin/verifications/{ngoID}/approve", h.handleApprove)
	r.Post("/admin/verifications/{ngoID}/reject", h.handleReject)
	r.Get("/admin/stats", h.handleStats)
	r.Get("/admin/revenue", h.handleRevenue)
	r.Delete("/admin/ngos/{ngoID}", h.handleRemoveNGO)
}

type pendingVerificationResponse struct {
	UserID             string `json:"user_id"`
	OrganizationName   string `json:"organization_name"`
	RepresentativeName string `json:"representative_name"`
	PhoneNumber        string `json:"phone_number"`
	CertificateNumber  string `json:"certificate_number"`
	CertificateURL     string `json:"certificate_url"`
	Location           string `json:"location"`
	SubmittedAt        string `json:"submitted_at"`
}

func (h *Handler) handlePendingVerifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pending, err := h.service.PendingVerifications(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]pendingVerificationResponse, 0, len(pending))
	for _, p := range pending {
		out = append(out, pendingVerificationResponse{
			UserID:             p.ID.String(),
			OrganizationName:   p.OrganizationName,
			RepresentativeName: p.RepresentativeName,
			PhoneNumber:        p.PhoneNumber,
			CertificateNumber:  p.CertificateNumber,
			CertificateURL:     p.CertificateURL,
			Location:           p.Location,
			SubmittedAt:        p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func ngoIDFromRequest(r *http.Request) (id.UserID, error) {
	return id.ParseUserID(chi.URLParam(r, "ngoID"))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.ApproveVerification, "ngo verification approved")
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.RejectVerification, "ngo verification rejected")
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ngoID id.UserID) error, msg string) {
	ctx := r.Context()
	ngoID, err := ngoIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := fn(ctx, ngoID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"ngo_id", ngoID.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"donations_by_status": stats.DonationsByStatus,
		"donor_count":         stats.DonorCount,
		"ngo_count":           stats.NGOCount,
		"verified_ngo_count":  stats.VerifiedNGOCount,
	})
}

func (h *Handler) handleRevenue(w http.ResponseWriter, r *http.Request) {
	rev, err := h.service.Revenue(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"paid_ngo_count":       rev.PaidNGOCount,
		"activation_fee_cents": rev.ActivationFeeCents,
		"total_cents":          rev.TotalCents,
	})
}

func (h *Handler) handleRemoveNGO(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ngoID, err := ngoIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.RemoveNGO(ctx, ngoID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "ngo removed",
		"request_id", middleware.GetRequestID(ctx),
		"ngo_id", ngoID.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}
