package stats

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	pointawardstore "github.com/dalemusser/taskquest/internal/app/store/pointawards"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/paging"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type awardsResponse struct {
	Awards     []models.PointAward `json:"awards"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// ServeAwards handles GET /api/stats/awards?after=&limit=, the user's point
// history newest first.
func (h *Handler) ServeAwards(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var after *paging.TimeCursor
	if a := query.Get(r, "after"); a != "" {
		cur, ok := paging.DecodeTimeCursor(a)
		if !ok {
			uierrors.Invalid(w, "Invalid cursor.")
			return
		}
		after = &cur
	}
	limit := paging.ParseLimit(r, paging.DefaultLimit)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, hasNext, err := pointawardstore.New(h.DB).ListByUser(ctx, su.ObjectID(), after, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list point awards", err, "")
		return
	}
	if rows == nil {
		rows = []models.PointAward{}
	}
	jsonutil.Write(w, http.StatusOK, awardsResponse{
		Awards: rows,
		NextCursor: paging.NextCursor(rows, hasNext,
			func(a models.PointAward) time.Time { return a.CreatedAt },
			func(a models.PointAward) primitive.ObjectID { return a.ID }),
	})
}
