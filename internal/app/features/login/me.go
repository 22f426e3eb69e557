package login

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/rewards"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/domain/models"
)

type meResponse struct {
	models.User
	Rank        int             `json:"rank"`
	BadgeDetail []rewards.Badge `json:"badge_detail"`
}

// ServeMe handles GET /api/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users := userstore.New(h.DB)
	u, err := users.GetByID(ctx, su.ObjectID())
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load current user", err, "")
		return
	}
	rank, err := users.Rank(ctx, u.Points)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "rank current user", err, "")
		return
	}

	resp := meResponse{User: *u, Rank: rank, BadgeDetail: []rewards.Badge{}}
	for _, id := range u.Badges {
		if b, ok := rewards.Lookup(id); ok {
			resp.BadgeDetail = append(resp.BadgeDetail, b)
		}
	}
	jsonutil.Write(w, http.StatusOK, resp)
}
