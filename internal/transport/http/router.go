package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "hopecycle/internal/admin/handler"
	authhandler "hopecycle/internal/auth/handler"
	broadcasthandler "hopecycle/internal/broadcast/handler"
	donationhandler "hopecycle/internal/donation/handler"
	messagehandler "hopecycle/internal/message/handler"
	notificationhandler "hopecycle/internal/notification/handler"
	"hopecycle/internal/platform/metrics"
	"hopecycle/internal/platform/middleware"
	"hopecycle/internal/profile"
	profilehandler "hopecycle/internal/profile/handler"
	"hopecycle/pkg/platform/httputil"
)

// Handlers collects every module's HTTP surface for the router to mount.
type Handlers struct {
	Auth          *authhandler.Handler
	Profile       *profilehandler.Handler
	Donation      *donationhandler.Handler
	Broadcast     *broadcasthandler.Handler
	Message       *messagehandler.Handler
	Notification  *notificationhandler.Handler
	Admin         *adminhandler.Handler
	TokenVerifier middleware.TokenValidator
}

// NewRouter assembles the full HTTP surface: public auth routes, the
// authenticated API, role-gated donor/NGO subtrees, and the admin console.
func NewRouter(h Handlers, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		h.Auth.RegisterPublic(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.TokenVerifier, logger))

		h.Auth.RegisterAuthenticated(r)
		h.Profile.Register(r)
		h.Donation.Register(r)
		h.Message.Register(r)
		h.Notification.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(profile.RoleDonor), logger))
			h.Donation.RegisterDonor(r)
			h.Broadcast.RegisterDonor(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(profile.RoleNGO), logger))
			h.Profile.RegisterNGO(r)
			h.Donation.RegisterNGO(r)
			h.Broadcast.RegisterNGO(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(profile.RoleAdmin), logger))
			h.Admin.Register(r)
		})
	})

	return r
}
