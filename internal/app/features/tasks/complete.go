package tasks

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	pointawardstore "github.com/dalemusser/taskquest/internal/app/store/pointawards"
	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/rewards"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/app/system/txn"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"go.uber.org/zap"
)

type completeResponse struct {
	Task           *models.Task    `json:"task"`
	PointsAwarded  int             `json:"points_awarded"`
	Reason         string          `json:"reason"`
	Message        string          `json:"message"`
	TotalPoints    int             `json:"total_points"`
	TasksCompleted int             `json:"tasks_completed"`
	NewBadges      []rewards.Badge `json:"new_badges"`
}

// HandleComplete handles POST /api/tasks/{id}/complete.
//
// The task update, the ledger entry and the user's totals are written
// together. Each write is guarded on its own (completed=false filter, unique
// task_id in the ledger, $inc on the user) so a repeated request can never
// award a task twice.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	uid := su.ObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tasks := taskstore.New(h.DB)
	t, err := tasks.Get(ctx, uid, id)
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.NotFound(w, "Task not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load task", err, "")
		return
	}
	if t.Completed {
		uierrors.Conflict(w, "Task is already completed.")
		return
	}

	now := time.Now().UTC()
	outcome := rewards.Evaluate(*t, now)

	var (
		done   *models.Task
		user   *models.User
		earned []string
	)
	err = txn.Run(ctx, h.DB.Client(), h.Log, func(ctx context.Context) error {
		var err error
		done, err = tasks.MarkCompleted(ctx, *t, outcome.Points, now)
		if err != nil {
			return err
		}
		if _, err := pointawardstore.New(h.DB).Record(ctx, models.PointAward{
			UserID:    uid,
			TaskID:    t.ID,
			Points:    outcome.Points,
			Reason:    outcome.Reason,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		users := userstore.New(h.DB)
		user, err = users.ApplyAward(ctx, uid, outcome.Points)
		if err != nil {
			return err
		}
		earned = rewards.NewlyEarned(user.Points, user.TasksCompleted, user.Badges)
		return users.AddBadges(ctx, uid, earned)
	})
	switch {
	case errors.Is(err, taskstore.ErrAlreadyCompleted), errors.Is(err, pointawardstore.ErrDuplicate):
		uierrors.Conflict(w, "Task is already completed.")
		return
	case errors.Is(err, taskstore.ErrChanged):
		uierrors.Conflict(w, "Task changed while completing. Please try again.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "complete task", err, "Failed to complete task.")
		return
	}

	badges := make([]rewards.Badge, 0, len(earned))
	for _, id := range earned {
		if b, ok := rewards.Lookup(id); ok {
			badges = append(badges, b)
		}
	}

	h.Log.Info("task completed",
		zap.String("user_id", su.ID),
		zap.String("task_id", t.ID.Hex()),
		zap.Int("points", outcome.Points),
		zap.String("reason", outcome.Reason),
		zap.Strings("new_badges", earned))

	jsonutil.Write(w, http.StatusOK, completeResponse{
		Task:           withDocuments(done),
		PointsAwarded:  outcome.Points,
		Reason:         outcome.Reason,
		Message:        outcome.Message,
		TotalPoints:    user.Points,
		TasksCompleted: user.TasksCompleted,
		NewBadges:      badges,
	})
}
