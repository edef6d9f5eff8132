package messaging

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

// Handler exposes the conversation API.
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

// MountRoutes registers conversation routes. Reading needs messages.view,
// posting needs messages.send; participation is enforced by the service on
// top of that.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermMessagesView))
		r.Get("/", h.inbox)
		r.Get("/unread", h.unread)
		r.Get("/{conversationID}/messages", h.messages)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermMessagesSend))
		r.Post("/", h.start)
		r.Post("/{conversationID}/messages", h.send)
	})
}

type startForm struct {
	AdvertisementID int64  `json:"advertisement_id" validate:"required,gt=0"`
	Body            string `json:"body" validate:"required"`
}

type sendForm struct {
	Body string `json:"body" validate:"required"`
}

type conversationResponse struct {
	ID              int64     `json:"id"`
	AdvertisementID int64     `json:"advertisement_id"`
	SellerID        int64     `json:"seller_id"`
	BuyerID         int64     `json:"buyer_id"`
	CreatedAt       time.Time `json:"created_at"`
	LastMessageAt   time.Time `json:"last_message_at"`
	Unread          int64     `json:"unread,omitempty"`
}

type messageResponse struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	SenderID       int64      `json:"sender_id"`
	Body           string     `json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

type startResponse struct {
	Conversation conversationResponse `json:"conversation"`
	Message      messageResponse      `json:"message"`
}

func (h *Handler) inbox(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	items, err := h.service.Inbox(r.Context(), actorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]conversationResponse, len(items))
	for i, s := range items {
		out[i] = toConversationResponse(s.Conversation)
		out[i].Unread = s.Unread
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) unread(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	n, err := h.service.UnreadTotal(r.Context(), actorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]int64{"unread": n})
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	items, err := h.service.Messages(r.Context(), actorID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]messageResponse, len(items))
	for i, msg := range items {
		out[i] = toMessageResponse(msg)
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	var form startForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	conv, msg, err := h.service.Start(r.Context(), actorID, form.AdvertisementID, form.Body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, startResponse{
		Conversation: toConversationResponse(conv),
		Message:      toMessageResponse(msg),
	})
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var form sendForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	msg, err := h.service.Send(r.Context(), actorID, id, form.Body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (h *Handler) actorAndID(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	actorID, ok := actor(r)
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return 0, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid conversation id")
		return 0, 0, false
	}
	return actorID, id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := shared.HTTPStatusFor(err)
	if status == http.StatusInternalServerError {
		if h.logger != nil {
			h.logger.Error("messaging handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		shared.RespondError(w, status, http.StatusText(status))
		return
	}
	shared.RespondError(w, status, err.Error())
}

func toConversationResponse(conv Conversation) conversationResponse {
	return conversationResponse{
		ID:              conv.ID,
		AdvertisementID: conv.AdvertisementID,
		SellerID:        conv.SellerID,
		BuyerID:         conv.BuyerID,
		CreatedAt:       conv.CreatedAt,
		LastMessageAt:   conv.LastMessageAt,
	}
}

func toMessageResponse(msg Message) messageResponse {
	return messageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt,
		ReadAt:         msg.ReadAt,
	}
}

func actor(r *http.Request) (int64, bool) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		return 0, false
	}
	return principal.UserID()
}
