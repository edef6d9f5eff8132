package payments

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

// Handler exposes the payment API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers payment routes. Recording needs payments.record,
// the back-office listing needs payments.view.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(shared.PermPaymentsRecord)).Post("/", h.record)
	r.With(h.guard.RequireAuthenticated()).Get("/mine", h.listOwn)
	r.With(h.guard.RequirePermission(shared.PermPaymentsView)).Get("/", h.listAll)
}

type recordForm struct {
	AdvertisementID *int64 `json:"advertisement_id" validate:"omitempty,gt=0"`
	Kind            string `json:"kind" validate:"required,oneof=promotion listing_fee subscription"`
	AmountCents     int64  `json:"amount_cents" validate:"required,gt=0"`
	Currency        string `json:"currency" validate:"omitempty,len=3"`
	ClientRef       string `json:"client_ref" validate:"required,min=1,max=120"`
}

type paymentResponse struct {
	ID              int64     `json:"id"`
	PayerID         int64     `json:"payer_id"`
	AdvertisementID *int64    `json:"advertisement_id,omitempty"`
	Kind            string    `json:"kind"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	ClientRef       string    `json:"client_ref"`
	CreatedAt       time.Time `json:"created_at"`
}

type listResponse struct {
	Items      []paymentResponse `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	var form recordForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	payment, replayed, err := h.service.Record(r.Context(), actorID, Record{
		AdvertisementID: form.AdvertisementID,
		Kind:            Kind(form.Kind),
		AmountCents:     form.AmountCents,
		Currency:        form.Currency,
		ClientRef:       form.ClientRef,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	shared.RespondJSON(w, status, toResponse(payment))
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	items, err := h.service.ListOwn(r.Context(), actorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]paymentResponse, len(items))
	for i, p := range items {
		out[i] = toResponse(p)
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	items, pagination, err := h.service.ListAll(r.Context(), page, perPage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]paymentResponse, len(items))
	for i, p := range items {
		out[i] = toResponse(p)
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{Items: out, Pagination: pagination})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := shared.HTTPStatusFor(err)
	if status == http.StatusInternalServerError {
		if h.logger != nil {
			h.logger.Error("payments handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		shared.RespondError(w, status, http.StatusText(status))
		return
	}
	shared.RespondError(w, status, err.Error())
}

func toResponse(p Payment) paymentResponse {
	return paymentResponse{
		ID:              p.ID,
		PayerID:         p.PayerID,
		AdvertisementID: p.AdvertisementID,
		Kind:            string(p.Kind),
		AmountCents:     p.AmountCents,
		Currency:        p.Currency,
		ClientRef:       p.ClientRef,
		CreatedAt:       p.CreatedAt,
	}
}

func actor(r *http.Request) (int64, bool) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		return 0, false
	}
	return principal.UserID()
}
