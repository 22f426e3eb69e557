package stats

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	categorystore "github.com/dalemusser/taskquest/internal/app/store/categories"
	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/rewards"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
)

type categoryRow struct {
	taskstore.CategoryCounts
	Name string `json:"name"`
}

type statsResponse struct {
	Total          int             `json:"total"`
	Open           int             `json:"open"`
	Completed      int             `json:"completed"`
	Overdue        int             `json:"overdue"`
	ByCategory     []categoryRow   `json:"by_category"`
	Points         int             `json:"points"`
	TasksCompleted int             `json:"tasks_completed"`
	Badges         []rewards.Badge `json:"badges"`
}

// ServeStats handles GET /api/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	uid := su.ObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.Unauthorized(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user", err, "")
		return
	}
	counts, err := taskstore.New(h.DB).Counts(ctx, uid, time.Now().UTC())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count tasks", err, "")
		return
	}
	names, err := categorystore.New(h.DB).Names(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load category names", err, "")
		return
	}

	resp := statsResponse{
		Total:          counts.Total,
		Open:           counts.Open,
		Completed:      counts.Completed,
		Overdue:        counts.Overdue,
		ByCategory:     make([]categoryRow, 0, len(counts.ByCategory)),
		Points:         u.Points,
		TasksCompleted: u.TasksCompleted,
		Badges:         []rewards.Badge{},
	}
	for _, c := range counts.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryRow{CategoryCounts: c, Name: names[c.CategoryID]})
	}
	for _, id := range u.Badges {
		if b, ok := rewards.Lookup(id); ok {
			resp.Badges = append(resp.Badges, b)
		}
	}
	jsonutil.Write(w, http.StatusOK, resp)
}
