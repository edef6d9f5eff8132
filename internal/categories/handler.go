package categories

import (
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tradepost/tradepost/internal/authz"
	"github.com/tradepost/tradepost/internal/shared"
)

// Handler exposes the taxonomy API. Reading the tree is public; editing
// needs categories.edit.
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

// MountRoutes registers taxonomy routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.tree)
	r.Get("/{categoryID}", h.get)
	r.Get("/{categoryID}/attributes", h.attributes)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermCategoriesEdit))
		r.Post("/", h.create)
		r.Put("/{categoryID}", h.update)
		r.Delete("/{categoryID}", h.remove)
		r.Post("/{categoryID}/attributes", h.addAttribute)
		r.Delete("/{categoryID}/attributes/{attrID}", h.removeAttribute)
	})
}

type categoryForm struct {
	ParentID  *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Name      string `json:"name" validate:"required,min=2,max=80"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type attributeForm struct {
	Name     string   `json:"name" validate:"required,min=1,max=80"`
	Kind     string   `json:"kind" validate:"required,oneof=text number bool enum"`
	Required bool     `json:"required"`
	Options  []string `json:"options" validate:"omitempty,dive,min=1"`
}

type categoryResponse struct {
	ID        int64               `json:"id"`
	ParentID  *int64              `json:"parent_id,omitempty"`
	Name      string              `json:"name"`
	Slug      string              `json:"slug"`
	SortOrder int                 `json:"sort_order"`
	Children  []*categoryResponse `json:"children,omitempty"`
}

type attributeResponse struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.service.Tree(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]*categoryResponse, len(roots))
	for i, node := range roots {
		out[i] = toNodeResponse(node)
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	// Numeric ids and slugs share the path segment.
	raw := chi.URLParam(r, "categoryID")
	var (
		cat Category
		err error
	)
	if id, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
		cat, err = h.service.Get(r.Context(), id)
	} else {
		cat, err = h.service.GetBySlug(r.Context(), strings.ToLower(raw))
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toCategoryResponse(cat))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.decodeCategory(w, r)
	if !ok {
		return
	}
	cat, err := h.service.Create(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toCategoryResponse(cat))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryID")
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	draft, ok := h.decodeCategory(w, r)
	if !ok {
		return
	}
	cat, err := h.service.Update(r.Context(), id, draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toCategoryResponse(cat))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryID")
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) attributes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryID")
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	defs, err := h.service.Attributes(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]attributeResponse, len(defs))
	for i, def := range defs {
		out[i] = toAttributeResponse(def)
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) addAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryID")
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var form attributeForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	def, err := h.service.AddAttribute(r.Context(), AttributeDefinition{
		CategoryID: id,
		Name:       form.Name,
		Kind:       AttributeKind(form.Kind),
		Required:   form.Required,
		Options:    form.Options,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toAttributeResponse(def))
}

func (h *Handler) removeAttribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "attrID")
	if err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid attribute id")
		return
	}
	if err := h.service.RemoveAttribute(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) decodeCategory(w http.ResponseWriter, r *http.Request) (Draft, bool) {
	var form categoryForm
	if err := shared.DecodeJSON(r, &form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid payload")
		return Draft{}, false
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return Draft{}, false
	}
	return Draft{ParentID: form.ParentID, Name: form.Name, SortOrder: form.SortOrder}, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := shared.HTTPStatusFor(err)
	if status == http.StatusInternalServerError {
		if h.logger != nil {
			h.logger.Error("categories handler", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		shared.RespondError(w, status, http.StatusText(status))
		return
	}
	shared.RespondError(w, status, err.Error())
}

func toNodeResponse(node *Node) *categoryResponse {
	out := toCategoryResponse(node.Category)
	for _, child := range node.Children {
		out.Children = append(out.Children, toNodeResponse(child))
	}
	return out
}

func toCategoryResponse(cat Category) *categoryResponse {
	return &categoryResponse{
		ID:        cat.ID,
		ParentID:  cat.ParentID,
		Name:      cat.Name,
		Slug:      cat.Slug,
		SortOrder: cat.SortOrder,
	}
}

func toAttributeResponse(def AttributeDefinition) attributeResponse {
	return attributeResponse{
		ID:       def.ID,
		Name:     def.Name,
		Kind:     string(def.Kind),
		Required: def.Required,
		Options:  def.Options,
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
