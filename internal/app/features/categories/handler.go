// internal/app/features/categories/handler.go
package categories

import (
	"context"
	"errors"
	"net/http"

	categorystore "github.com/dalemusser/clubbera/internal/app/store/categories"
	"github.com/dalemusser/clubbera/internal/app/system/auth"
	"github.com/dalemusser/clubbera/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubbera/internal/app/system/inputval"
	"github.com/dalemusser/clubbera/internal/app/system/respond"
	"github.com/dalemusser/clubbera/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	MsgCategoryExists   = "Category already exists"
	MsgCategoryNotFound = "Category not found"
)

type Handler struct {
	Categories *categorystore.Store
	Log        *zap.Logger
}

func NewHandler(store *categorystore.Store, logger *zap.Logger) *Handler {
	return &Handler{Categories: store, Log: logger}
}

type createInput struct {
	Name string `json:"name" validate:"notblank,max=50" label:"Name"`
}

// Create handles POST /category (admin only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, _ := auth.CurrentUser(r)
	var in createInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Err(w, h.Log, err, "create category: decode")
		return
	}
	in.Name = htmlsanitize.PlainText(in.Name)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}

	c, err := h.Categories.Create(ctx, in.Name, u.ID)
	if errors.Is(err, categorystore.ErrDuplicateName) {
		respond.Error(w, http.StatusBadRequest, MsgCategoryExists)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "create category")
		return
	}
	h.Log.Info("category created", zap.String("category_id", c.ID.Hex()), zap.String("name", c.Name))
	respond.Created(w, c)
}

// Delete handles DELETE /category/{id} (admin only) and returns the removed
// category.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, MsgCategoryNotFound)
		return
	}
	c, err := h.Categories.Delete(ctx, id)
	if errors.Is(err, categorystore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, MsgCategoryNotFound)
		return
	}
	if err != nil {
		respond.Err(w, h.Log, err, "delete category", zap.String("category_id", id.Hex()))
		return
	}
	respond.OK(w, c)
}

// List handles GET /category.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Categories.List(ctx)
	if err != nil {
		respond.Err(w, h.Log, err, "list categories")
		return
	}
	respond.OK(w, list)
}
