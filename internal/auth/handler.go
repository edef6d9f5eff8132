package auth

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tradepost/tradepost/internal/shared"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers authentication routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
}

type registerForm struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshForm struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var form registerForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	user, err := h.service.Register(r.Context(), form.Email, form.Name, form.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	user, pair, err := h.service.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(user),
		"token": toTokenResponse(pair),
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var form refreshForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	pair, err := h.service.Refresh(r.Context(), form.RefreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var form refreshForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.service.Logout(r.Context(), form.RefreshToken); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	user, err := h.service.Me(r.Context(), principal)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := shared.HTTPStatusFor(err)
	if status == http.StatusInternalServerError {
		if h.logger != nil {
			h.logger.Error("auth handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		shared.RespondError(w, status, http.StatusText(status))
		return
	}
	shared.RespondError(w, status, err.Error())
}

func toUserResponse(user *User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func toTokenResponse(pair TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    pair.ExpiresAt,
	}
}
