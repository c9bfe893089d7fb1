package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hopecycle/internal/platform/middleware"
	"hopecycle/internal/profile"
	"hopecycle/pkg/platform/httputil"
)

// Handler exposes profile self-service, the verification workflow, and the
// nearby NGO view.
type Handler struct {
	service *profile.Service
	logger  *slog.Logger
}

func New(service *profile.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts routes for any authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profiles/me", h.handleGet)
	r.Put("/profiles/me", h.handleUpdate)
	r.Get("/profiles/ngos", h.handleNearbyNGOs)
}

// RegisterNGO mounts routes restricted to the NGO role.
func (h *Handler) RegisterNGO(r chi.Router) {
	r.Post("/profiles/verification", h.handleSubmitVerification)
	r.Post("/profiles/verification/payment", h.handleActivatePayment)
}

type profileResponse struct {
	ID                 string   `json:"id"`
	Role               string   `json:"role"`
	Email              string   `json:"email"`
	FullName           string   `json:"full_name"`
	OrganizationName   string   `json:"organization_name,omitempty"`
	RepresentativeName string   `json:"representative_name,omitempty"`
	PhoneNumber        string   `json:"phone_number,omitempty"`
	CertificateNumber  string   `json:"certificate_number,omitempty"`
	CertificateURL     string   `json:"certificate_url,omitempty"`
	AvatarURL          string   `json:"avatar_url,omitempty"`
	Location           string   `json:"location,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	VerificationStatus string   `json:"verification_status"`
	PaymentStatus      string   `json:"payment_status"`
}

func toProfileResponse(p *profile.Profile) profileResponse {
	return profileResponse{
		ID:                 p.ID.String(),
		Role:               string(p.Role),
		Email:              p.Email,
		FullName:           p.FullName,
		OrganizationName:   p.OrganizationName,
		RepresentativeName: p.RepresentativeName,
		PhoneNumber:        p.PhoneNumber,
		CertificateNumber:  p.CertificateNumber,
		CertificateURL:     p.CertificateURL,
		AvatarURL:          p.AvatarURL,
		Location:           p.Location,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		VerificationStatus: string(p.VerificationStatus),
		PaymentStatus:      string(p.PaymentStatus),
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.Get(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

type updateProfileRequest struct {
	FullName  string   `json:"full_name"`
	AvatarURL string   `json:"avatar_url"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Update(ctx, middleware.GetUserID(ctx), profile.UpdateProfileParams{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update profile",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

type verificationRequest struct {
	OrganizationName   string `json:"organization_name"`
	RepresentativeName string `json:"representative_name"`
	PhoneNumber        string `json:"phone_number"`
	CertificateNumber  string `json:"certificate_number"`
	CertificateURL     string `json:"certificate_url"`
	Location           string `json:"location"`
}

func (h *Handler) handleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verificationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	err := h.service.SubmitVerification(ctx, middleware.GetUserID(ctx), profile.VerificationDetails{
		OrganizationName:   req.OrganizationName,
		RepresentativeName: req.RepresentativeName,
		PhoneNumber:        req.PhoneNumber,
		CertificateNumber:  req.CertificateNumber,
		CertificateURL:     req.CertificateURL,
		Location:           req.Location,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleActivatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.ActivatePayment(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

type rankedNGOResponse struct {
	profileResponse
	DistanceKm      float64 `json:"distance_km"`
	DistanceUnknown bool    `json:"distance_unknown"`
}

func (h *Handler) handleNearbyNGOs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	strict := r.URL.Query().Get("strict") == "true"

	ranked, err := h.service.NearbyNGOs(ctx, middleware.GetUserID(ctx), strict)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]rankedNGOResponse, 0, len(ranked))
	for _, rn := range ranked {
		out = append(out, rankedNGOResponse{
			profileResponse: toProfileResponse(rn.Profile),
			DistanceKm:      rn.DistanceKm,
			DistanceUnknown: rn.Unknown,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
