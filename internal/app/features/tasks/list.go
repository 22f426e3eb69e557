package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/paging"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listResponse struct {
	Tasks      []models.Task `json:"tasks"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ServeList handles GET /api/tasks?category=&status=&q=&after=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	f := taskstore.ListFilter{
		Status: strings.ToLower(query.Get(r, "status")),
		Query:  query.Search(r, "q"),
		Limit:  paging.ParseLimit(r, paging.DefaultLimit),
		Now:    time.Now().UTC(),
	}
	switch f.Status {
	case taskstore.StatusAll, taskstore.StatusOpen, taskstore.StatusCompleted, taskstore.StatusOverdue:
	default:
		uierrors.Invalid(w, "Status must be one of: open, completed, overdue.")
		return
	}
	if c := query.Get(r, "category"); c != "" {
		oid, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			uierrors.Invalid(w, "Category is not a valid ID.")
			return
		}
		f.CategoryID = &oid
	}
	if a := query.Get(r, "after"); a != "" {
		cur, ok := paging.DecodeTimeCursor(a)
		if !ok {
			uierrors.Invalid(w, "Invalid cursor.")
			return
		}
		f.After = &cur
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, hasNext, err := taskstore.New(h.DB).List(ctx, su.ObjectID(), f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list tasks", err, "")
		return
	}
	for i := range rows {
		withDocuments(&rows[i])
	}
	jsonutil.Write(w, http.StatusOK, listResponse{
		Tasks: rows,
		NextCursor: paging.NextCursor(rows, hasNext,
			func(t models.Task) time.Time { return t.Deadline },
			func(t models.Task) primitive.ObjectID { return t.ID }),
	})
}

// ServeGet handles GET /api/tasks/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := taskstore.New(h.DB).Get(ctx, su.ObjectID(), id)
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.NotFound(w, "Task not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "get task", err, "")
		return
	}
	jsonutil.Write(w, http.StatusOK, withDocuments(t))
}

// taskID parses the {id} URL parameter, replying 404 when malformed.
func taskID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, "Task not found.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// withDocuments makes an empty attachment list encode as [] rather than null.
func withDocuments(t *models.Task) *models.Task {
	if t.Documents == nil {
		t.Documents = []models.DocumentRef{}
	}
	return t
}
