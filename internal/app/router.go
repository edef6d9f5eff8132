package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tradepost/tradepost/internal/ads"
	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/categories"
	"github.com/tradepost/tradepost/internal/messaging"
	"github.com/tradepost/tradepost/internal/notifications"
	"github.com/tradepost/tradepost/internal/observability"
	"github.com/tradepost/tradepost/internal/payments"
	"github.com/tradepost/tradepost/internal/rbac"
	"github.com/tradepost/tradepost/internal/users"
	"github.com/tradepost/tradepost/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	BearerMiddleware     func(http.Handler) http.Handler
	AuthHandler          *auth.Handler
	RBACHandler          *rbac.Handler
	UsersHandler         *users.Handler
	AdsHandler           *ads.Handler
	CategoriesHandler    *categories.Handler
	MessagingHandler     *messaging.Handler
	PaymentsHandler      *payments.Handler
	NotificationsHandler *notifications.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with Tradepost defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Bearer:  params.BearerMiddleware,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.RBACHandler != nil {
			// Mounts /roles, /permissions and /users/{userID}/roles.
			params.RBACHandler.MountRoutes(r)
		}
		if params.AdsHandler != nil {
			r.Route("/ads", params.AdsHandler.MountRoutes)
		}
		if params.CategoriesHandler != nil {
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
		}
		if params.MessagingHandler != nil {
			r.Route("/conversations", params.MessagingHandler.MountRoutes)
		}
		if params.PaymentsHandler != nil {
			r.Route("/payments", params.PaymentsHandler.MountRoutes)
		}
		if params.NotificationsHandler != nil {
			r.Route("/subscriptions", params.NotificationsHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
