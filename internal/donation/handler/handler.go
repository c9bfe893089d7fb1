package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hopecycle/internal/donation"
	"hopecycle/internal/platform/middleware"
	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/httputil"
)

// Handler exposes the donation lifecycle over HTTP. Role split: donors list
// and arbitrate, NGOs browse and claim.
type Handler struct {
	service *donation.Service
	logger  *slog.Logger
}

func New(service *donation.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts routes for any authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/donations/{donationID}", h.handleGet)
}

// RegisterDonor mounts the donor-only routes.
func (h *Handler) RegisterDonor(r chi.Router) {
	r.Post("/donations", h.handleCreate)
	r.Get("/donations/mine", h.handleListMine)
	r.Put("/donations/{donationID}", h.handleUpdate)
	r.Delete("/donations/{donationID}", h.handleDelete)
	r.Get("/donations/{donationID}/interests", h.handleListInterests)
	r.Post("/donations/{donationID}/accept", h.handleAccept)
	r.Post("/donations/{donationID}/reopen", h.handleReopen)
}

// RegisterNGO mounts the NGO-only routes.
func (h *Handler) RegisterNGO(r chi.Router) {
	r.Get("/donations", h.handleMarketplace)
	r.Get("/donations/nearby", h.handleNearby)
	r.Post("/donations/{donationID}/interests", h.handleExpressInterest)
	r.Post("/donations/{donationID}/complete", h.handleComplete)
	r.Get("/interests/mine", h.handleMyInterests)
}

type donationRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Condition   string   `json:"condition"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURLs   []string `json:"image_urls"`
	PickupTime  string   `json:"pickup_time"`
	BroadcastID string   `json:"broadcast_id,omitempty"`
}

func (req donationRequest) toParams() (donation.CreateParams, error) {
	params := donation.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ImageURLs:   req.ImageURLs,
		PickupTime:  req.PickupTime,
	}
	if req.BroadcastID != "" {
		bid, err := id.ParseBroadcastID(req.BroadcastID)
		if err != nil {
			return donation.CreateParams{}, err
		}
		params.BroadcastID = &bid
	}
	return params, nil
}

type donationResponse struct {
	ID          string   `json:"id"`
	DonorID     string   `json:"donor_id"`
	NGOID       string   `json:"ngo_id,omitempty"`
	BroadcastID string   `json:"broadcast_id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Condition   string   `json:"condition"`
	Status      string   `json:"status"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	ImageURLs   []string `json:"image_urls"`
	PickupTime  string   `json:"pickup_time,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toDonationResponse(d *donation.Donation) donationResponse {
	resp := donationResponse{
		ID:          d.ID.String(),
		DonorID:     d.DonorID.String(),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Condition:   d.Condition,
		Status:      string(d.Status),
		Location:    d.Location,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		ImageURLs:   d.ImageURLs,
		PickupTime:  d.PickupTime,
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if d.NGOID != nil {
		resp.NGOID = d.NGOID.String()
	}
	if d.BroadcastID != nil {
		resp.BroadcastID = d.BroadcastID.String()
	}
	return resp
}

func donationsToResponse(ds []*donation.Donation) []donationResponse {
	out := make([]donationResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDonationResponse(d))
	}
	return out
}

func donationIDFromRequest(r *http.Request) (id.DonationID, error) {
	return id.ParseDonationID(chi.URLParam(r, "donationID"))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req donationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.service.Create(ctx, middleware.GetUserID(ctx), params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "donation created",
		"request_id", middleware.GetRequestID(ctx),
		"donation_id", d.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toDonationResponse(d))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	donationID, err := donationIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.Get(r.Context(), donationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req donationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	params, err := req.toParams()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.service.Update(ctx, middleware.GetUserID(ctx), donationID, params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), donationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := h.service.ListByDonor(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, donationsToResponse(ds))
}

func (h *Handler) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := h.service.ListMarketplace(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, donationsToResponse(ds))
}

type rankedDonationResponse struct {
	donationResponse
	DistanceKm      float64 `json:"distance_km"`
	DistanceUnknown bool    `json:"distance_unknown"`
}

func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	strict := r.URL.Query().Get("strict") == "true"

	ranked, err := h.service.ListNearby(ctx, middleware.GetUserID(ctx), strict)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]rankedDonationResponse, 0, len(ranked))
	for _, rd := range ranked {
		out = append(out, rankedDonationResponse{
			donationResponse: toDonationResponse(rd.Donation),
			DistanceKm:       rd.DistanceKm,
			DistanceUnknown:  rd.Unknown,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type interestResponse struct {
	ID         string `json:"id"`
	DonationID string `json:"donation_id"`
	NGOID      string `json:"ngo_id"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

func toInterestResponse(in *donation.Interest) interestResponse {
	return interestResponse{
		ID:         in.ID.String(),
		DonationID: in.DonationID.String(),
		NGOID:      in.NGOID.String(),
		Status:     string(in.Status),
		CreatedAt:  in.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func interestsToResponse(ins []*donation.Interest) []interestResponse {
	out := make([]interestResponse, 0, len(ins))
	for _, in := range ins {
		out = append(out, toInterestResponse(in))
	}
	return out
}

func (h *Handler) handleExpressInterest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	in, err := h.service.ExpressInterest(ctx, middleware.GetUserID(ctx), donationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toInterestResponse(in))
}

func (h *Handler) handleListInterests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ins, err := h.service.ListInterests(ctx, middleware.GetUserID(ctx), donationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, interestsToResponse(ins))
}

func (h *Handler) handleMyInterests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ins, err := h.service.ListInterestsByNGO(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, interestsToResponse(ins))
}

type acceptRequest struct {
	InterestID string `json:"interest_id"`
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req acceptRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	interestID, err := id.ParseInterestID(req.InterestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.AcceptInterest(ctx, middleware.GetUserID(ctx), donationID, interestID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "interest accepted",
		"request_id", middleware.GetRequestID(ctx),
		"donation_id", donationID.String(),
		"interest_id", interestID.String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.CompletePickup(ctx, middleware.GetUserID(ctx), donationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Reopen(ctx, middleware.GetUserID(ctx), donationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
