package reminders

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	reminderstore "github.com/dalemusser/taskquest/internal/app/store/reminders"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/domain/models"
)

type digest struct {
	Day         string               `json:"day"`
	Overdue     []models.TaskSummary `json:"overdue"`
	DueSoon     []models.TaskSummary `json:"due_soon"`
	GeneratedAt *time.Time           `json:"generated_at,omitempty"`
}

// ServeToday handles GET /api/reminders/today. Before the digest job has run
// for the day the lists are empty and generated_at is omitted.
func (h *Handler) ServeToday(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := reminderstore.New(h.DB, h.Loc)
	day := store.Day(time.Now())
	out := digest{Day: day, Overdue: []models.TaskSummary{}, DueSoon: []models.TaskSummary{}}

	rem, err := store.GetForDay(ctx, su.ObjectID(), day)
	switch {
	case errors.Is(err, reminderstore.ErrNotFound):
	case err != nil:
		h.ErrLog.LogServerError(w, r, "load reminder digest", err, "")
		return
	default:
		if rem.Overdue != nil {
			out.Overdue = rem.Overdue
		}
		if rem.DueSoon != nil {
			out.DueSoon = rem.DueSoon
		}
		out.GeneratedAt = &rem.CreatedAt
	}
	jsonutil.Write(w, http.StatusOK, out)
}
