package categories

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	categorystore "github.com/dalemusser/taskquest/internal/app/store/categories"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/inputval"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/domain/models"
)

type createRequest struct {
	Name  string `json:"name" validate:"required,max=60" label:"Name"`
	Label string `json:"label" validate:"max=60" label:"Label"`
	Color string `json:"color" validate:"required,hexcolor" label:"Color"`
}

type updateRequest struct {
	Name  *string `json:"name" validate:"max=60" label:"Name"`
	Label *string `json:"label" validate:"max=60" label:"Label"`
	Color *string `json:"color" validate:"hexcolor" label:"Color"`
}

// HandleCreate handles POST /api/categories.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var in createRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode category body", err, "Invalid request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.Invalid(w, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := categorystore.New(h.DB).Create(ctx, models.Category{
		UserID: su.ObjectID(),
		Name:   in.Name,
		Label:  in.Label,
		Color:  in.Color,
	})
	if errors.Is(err, categorystore.ErrDuplicateName) {
		uierrors.Conflict(w, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create category", err, "Failed to create category.")
		return
	}
	jsonutil.Write(w, http.StatusCreated, c)
}

// HandleUpdate handles PATCH /api/categories/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := categoryID(w, r)
	if !ok {
		return
	}

	var in updateRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode category body", err, "Invalid request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.Invalid(w, res.First())
		return
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		uierrors.Invalid(w, "Name cannot be empty.")
		return
	}
	if in.Color != nil && strings.TrimSpace(*in.Color) == "" {
		uierrors.Invalid(w, "Color cannot be empty.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := categorystore.New(h.DB).Update(ctx, su.ObjectID(), id, categorystore.Update{
		Name:  in.Name,
		Label: in.Label,
		Color: in.Color,
	})
	switch {
	case errors.Is(err, categorystore.ErrNotFound):
		uierrors.NotFound(w, "Category not found.")
		return
	case errors.Is(err, categorystore.ErrDuplicateName):
		uierrors.Conflict(w, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update category", err, "Failed to update category.")
		return
	}
	jsonutil.Write(w, http.StatusOK, c)
}
