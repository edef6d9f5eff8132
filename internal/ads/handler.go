package ads

import (
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tradepost/tradepost/internal/authz"
	"github.com/tradepost/tradepost/internal/shared"
)

// Handler exposes the advertisement API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers advertisement routes. Browsing published listings is
// public; every mutation requires a principal and the relevant permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPublished)
	r.With(h.guard.RequireAuthenticated()).Get("/mine", h.listOwn)
	r.Get("/{adID}", h.get)

	r.With(h.guard.RequirePermission(shared.PermAdsCreate)).Post("/", h.create)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated())
		r.Put("/{adID}", h.update)
		r.Post("/{adID}/archive", h.archive)
		r.Delete("/{adID}", h.remove)
	})
	r.With(h.guard.RequirePermission(shared.PermAdsPublish)).Post("/{adID}/publish", h.publish)
}

type draftForm struct {
	CategoryID  int64             `json:"category_id" validate:"required,gt=0"`
	Title       string            `json:"title" validate:"required,min=3,max=140"`
	Description string            `json:"description" validate:"max=8000"`
	PriceCents  int64             `json:"price_cents" validate:"gte=0"`
	Currency    string            `json:"currency" validate:"omitempty,len=3"`
	Attributes  map[string]string `json:"attributes"`
}

type adResponse struct {
	ID          int64             `json:"id"`
	OwnerID     int64             `json:"owner_id"`
	CategoryID  int64             `json:"category_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	PriceCents  int64             `json:"price_cents"`
	Currency    string            `json:"currency"`
	Status      Status            `json:"status"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
}

type listResponse struct {
	Items      []adResponse      `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listPublished(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)
	items, pagination, err := h.service.ListPublished(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{Items: toResponses(items), Pagination: pagination})
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	filter := filterFromQuery(r)
	items, pagination, err := h.service.ListOwn(r.Context(), actorID, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{Items: toResponses(items), Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "adID")
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid ad id")
		return
	}
	actorID, _ := actor(r)
	ad, err := h.service.Get(r.Context(), actorID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(ad))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	ad, err := h.service.Create(r.Context(), actorID, draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(ad))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}
	ad, err := h.service.Update(r.Context(), actorID, id, draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(ad))
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	ad, err := h.service.Publish(r.Context(), actorID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(ad))
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	ad, err := h.service.Archive(r.Context(), actorID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(ad))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actorID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) decodeDraft(w http.ResponseWriter, r *http.Request) (Draft, bool) {
	var form draftForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return Draft{}, false
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return Draft{}, false
	}
	return Draft{
		CategoryID:  form.CategoryID,
		Title:       form.Title,
		Description: form.Description,
		PriceCents:  form.PriceCents,
		Currency:    form.Currency,
		Attributes:  form.Attributes,
	}, true
}

func (h *Handler) actorAndID(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return 0, 0, false
	}
	id, err := pathID(r, "adID")
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid ad id")
		return 0, 0, false
	}
	return actorID, id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := shared.HTTPStatusFor(err)
	if status == http.StatusInternalServerError {
		if h.logger != nil {
			h.logger.Error("ads handler", slog.String("path", r.URL.Path), slog.Any("error", err))
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

func filterFromQuery(r *http.Request) ListFilter {
	q := r.URL.Query()
	categoryID, _ := strconv.ParseInt(q.Get("category_id"), 10, 64)
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return ListFilter{CategoryID: categoryID, Page: page, PerPage: perPage}
}

func toResponses(items []Advertisement) []adResponse {
	out := make([]adResponse, len(items))
	for i, ad := range items {
		out[i] = toResponse(ad)
	}
	return out
}

func toResponse(ad Advertisement) adResponse {
	return adResponse{
		ID:          ad.ID,
		OwnerID:     ad.OwnerID,
		CategoryID:  ad.CategoryID,
		Title:       ad.Title,
		Description: ad.Description,
		PriceCents:  ad.PriceCents,
		Currency:    ad.Currency,
		Status:      ad.Status,
		Attributes:  ad.Attributes,
		CreatedAt:   ad.CreatedAt,
		UpdatedAt:   ad.UpdatedAt,
		PublishedAt: ad.PublishedAt,
		ExpiresAt:   ad.ExpiresAt,
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
