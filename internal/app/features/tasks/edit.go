package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	categorystore "github.com/dalemusser/taskquest/internal/app/store/categories"
	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/blobstore"
	"github.com/dalemusser/taskquest/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskquest/internal/app/system/inputval"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type locationInput struct {
	Lat  float64 `json:"lat" validate:"lat" label:"Latitude"`
	Long float64 `json:"long" validate:"lon" label:"Longitude"`
}

// optionalLocation tells an absent "location" apart from an explicit null,
// which clears the stored location.
type optionalLocation struct {
	Set   bool
	Value *locationInput
}

func (o *optionalLocation) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v locationInput
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type createRequest struct {
	Name            string         `json:"name" validate:"required,max=120" label:"Name"`
	Description     string         `json:"description" validate:"max=2000" label:"Description"`
	CategoryID      string         `json:"category_id" validate:"required,objectid" label:"Category"`
	Deadline        time.Time      `json:"deadline" validate:"required" label:"Deadline"`
	Location        *locationInput `json:"location"`
	CalendarEventID string         `json:"calendar_event_id" validate:"max=200" label:"Calendar event"`
}

type updateRequest struct {
	Name            *string          `json:"name" validate:"max=120" label:"Name"`
	Description     *string          `json:"description" validate:"max=2000" label:"Description"`
	CategoryID      *string          `json:"category_id" validate:"objectid" label:"Category"`
	Deadline        *time.Time       `json:"deadline" label:"Deadline"`
	Location        optionalLocation `json:"location"`
	CalendarEventID *string          `json:"calendar_event_id" validate:"max=200" label:"Calendar event"`
}

// HandleCreate handles POST /api/tasks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var in createRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode task body", err, "Invalid request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.Invalid(w, res.First())
		return
	}
	if res := inputval.Validate(in.Location); res.HasErrors() {
		uierrors.Invalid(w, res.First())
		return
	}
	name := htmlsanitize.StripTags(in.Name)
	if name == "" {
		uierrors.Invalid(w, "Name is required.")
		return
	}
	catID, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.CategoryID))
	if err != nil {
		uierrors.Invalid(w, "Category is not a valid ID.")
		return
	}
	uid := su.ObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.ownsCategory(ctx, w, r, uid, catID) {
		return
	}

	t := models.Task{
		UserID:          uid,
		CategoryID:      catID,
		Name:            name,
		Description:     htmlsanitize.StripTags(in.Description),
		Deadline:        in.Deadline,
		CalendarEventID: strings.TrimSpace(in.CalendarEventID),
	}
	if in.Location != nil {
		t.Location = &models.Location{Lat: in.Location.Lat, Long: in.Location.Long}
	}
	created, err := taskstore.New(h.DB).Create(ctx, t)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create task", err, "Failed to create task.")
		return
	}
	jsonutil.Write(w, http.StatusCreated, withDocuments(&created))
}

// HandleUpdate handles PATCH /api/tasks/{id}. Moving the deadline counts
// against the task's on-time reward; completed tasks cannot be rescheduled.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var in updateRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode task body", err, "Invalid request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.Invalid(w, res.First())
		return
	}
	if res := inputval.Validate(in.Location.Value); res.HasErrors() {
		uierrors.Invalid(w, res.First())
		return
	}

	var upd taskstore.Update
	if in.Name != nil {
		name := htmlsanitize.StripTags(*in.Name)
		if name == "" {
			uierrors.Invalid(w, "Name cannot be empty.")
			return
		}
		upd.Name = &name
	}
	if in.Description != nil {
		desc := htmlsanitize.StripTags(*in.Description)
		upd.Description = &desc
	}
	if in.Deadline != nil {
		if in.Deadline.IsZero() {
			uierrors.Invalid(w, "Deadline cannot be empty.")
			return
		}
		upd.Deadline = in.Deadline
	}
	if in.Location.Set {
		if in.Location.Value == nil {
			upd.ClearLocation = true
		} else {
			upd.Location = &models.Location{Lat: in.Location.Value.Lat, Long: in.Location.Value.Long}
		}
	}
	if in.CalendarEventID != nil {
		ev := strings.TrimSpace(*in.CalendarEventID)
		upd.CalendarEventID = &ev
	}

	uid := su.ObjectID()
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if in.CategoryID != nil {
		catID, err := primitive.ObjectIDFromHex(strings.TrimSpace(*in.CategoryID))
		if err != nil {
			uierrors.Invalid(w, "Category is not a valid ID.")
			return
		}
		if !h.ownsCategory(ctx, w, r, uid, catID) {
			return
		}
		upd.CategoryID = &catID
	}

	t, err := taskstore.New(h.DB).Update(ctx, uid, id, upd)
	switch {
	case errors.Is(err, taskstore.ErrNotFound):
		uierrors.NotFound(w, "Task not found.")
		return
	case errors.Is(err, taskstore.ErrAlreadyCompleted):
		uierrors.Conflict(w, "Completed tasks cannot be rescheduled.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update task", err, "Failed to update task.")
		return
	}
	jsonutil.Write(w, http.StatusOK, withDocuments(t))
}

// HandleDelete handles DELETE /api/tasks/{id}. Attached documents are removed
// from object storage after the task itself is gone.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := taskstore.New(h.DB).Delete(ctx, su.ObjectID(), id)
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.NotFound(w, "Task not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete task", err, "Failed to delete task.")
		return
	}
	keys := make([]string, 0, len(t.Documents))
	for _, d := range t.Documents {
		keys = append(keys, d.Path)
	}
	if err := blobstore.Remove(ctx, h.Blobs, keys...); err != nil {
		h.Log.Warn("failed to delete task documents", zap.Strings("keys", keys), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownsCategory replies 422 unless catID is one of the user's categories.
func (h *Handler) ownsCategory(ctx context.Context, w http.ResponseWriter, r *http.Request, uid, catID primitive.ObjectID) bool {
	ok, err := categorystore.New(h.DB).Exists(ctx, uid, catID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check category", err, "")
		return false
	}
	if !ok {
		uierrors.Invalid(w, "Category not found.")
		return false
	}
	return true
}
