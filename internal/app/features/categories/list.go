package categories

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	categorystore "github.com/dalemusser/taskquest/internal/app/store/categories"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /api/categories.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cats, err := categorystore.New(h.DB).List(ctx, su.ObjectID())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list categories", err, "")
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]any{"categories": cats})
}

// ServeGet handles GET /api/categories/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := categoryID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := categorystore.New(h.DB).Get(ctx, su.ObjectID(), id)
	if errors.Is(err, categorystore.ErrNotFound) {
		uierrors.NotFound(w, "Category not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "get category", err, "")
		return
	}
	jsonutil.Write(w, http.StatusOK, c)
}

// categoryID parses the {id} URL parameter, replying 404 when malformed.
func categoryID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, "Category not found.")
		return primitive.NilObjectID, false
	}
	return id, true
}
