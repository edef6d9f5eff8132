package notifications

import (
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/tradepost/tradepost/internal/authz"
	"github.com/tradepost/tradepost/internal/shared"
)

// Handler exposes the subscription API. All routes require a principal.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers subscription routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated())
		r.Get("/", h.list)
		r.Post("/{categoryID}", h.subscribe)
		r.Delete("/{categoryID}", h.unsubscribe)
	})
	r.With(h.guard.RequirePermission(shared.PermSubscriptionsView)).Get("/users/{userID}", h.listFor)
}

type subscriptionResponse struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	items, err := h.service.ListFor(r.Context(), actorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]subscriptionResponse, len(items))
	for i, sub := range items {
		out[i] = subscriptionResponse{ID: sub.ID, CategoryID: sub.CategoryID, CreatedAt: sub.CreatedAt}
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	actorID, categoryID, ok := h.actorAndCategory(w, r)
	if !ok {
		return
	}
	sub, err := h.service.Subscribe(r.Context(), actorID, categoryID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, subscriptionResponse{ID: sub.ID, CategoryID: sub.CategoryID, CreatedAt: sub.CreatedAt})
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	actorID, categoryID, ok := h.actorAndCategory(w, r)
	if !ok {
		return
	}
	if err := h.service.Unsubscribe(r.Context(), actorID, categoryID); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) listFor(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	items, err := h.service.ListFor(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]subscriptionResponse, len(items))
	for i, sub := range items {
		out[i] = subscriptionResponse{ID: sub.ID, CategoryID: sub.CategoryID, CreatedAt: sub.CreatedAt}
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) actorAndCategory(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return 0, 0, false
	}
	categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid category id")
		return 0, 0, false
	}
	return actorID, categoryID, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := shared.HTTPStatusFor(err)
	if status == http.StatusInternalServerError {
		if h.logger != nil {
			h.logger.Error("notifications handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		shared.RespondError(w, status, http.StatusText(status))
		return
	}
	shared.RespondError(w, status, err.Error())
}

func actor(r *http.Request) (int64, bool) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		return 0, false
	}
	return principal.UserID()
}
