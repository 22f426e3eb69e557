package leaderboard

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/paging"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
)

type standing struct {
	Rank   int `json:"rank"`
	Points int `json:"points"`
}

type response struct {
	Entries []userstore.LeaderboardEntry `json:"entries"`
	Me      standing                     `json:"me"`
}

// ServeLeaderboard handles GET /api/leaderboard?limit=. The caller's own rank
// is included even when they are outside the returned rows.
func (h *Handler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	limit := paging.ParseLimit(r, DefaultLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users := userstore.New(h.DB)
	entries, err := users.Leaderboard(ctx, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load leaderboard", err, "")
		return
	}

	me, err := users.GetByID(ctx, su.ObjectID())
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.Unauthorized(w)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load current user", err, "")
		return
	}
	rank, err := users.Rank(ctx, me.Points)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "rank current user", err, "")
		return
	}

	jsonutil.Write(w, http.StatusOK, response{
		Entries: entries,
		Me:      standing{Rank: rank, Points: me.Points},
	})
}
