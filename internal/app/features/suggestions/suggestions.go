package suggestions

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
)

type response struct {
	Categories  []CategoryCount `json:"categories"`
	Suggestions string          `json:"suggestions"`
}

// ServeSuggestions handles GET /api/suggestions. A user with no tasks gets
// an empty result without any upstream call.
func (h *Handler) ServeSuggestions(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	limit := h.MaxTasks
	if limit <= 0 {
		limit = DefaultMaxTasks
	}
	texts, err := taskstore.New(h.DB).Texts(ctx, su.ObjectID(), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load task texts", err, "")
		return
	}
	if len(texts) == 0 {
		jsonutil.Write(w, http.StatusOK, response{Categories: []CategoryCount{}})
		return
	}

	cats, err := h.classify(ctx, texts)
	if err != nil {
		h.ErrLog.LogUpstreamError(w, r, "nlclassify", err)
		return
	}

	text, err := h.Generator.Generate(ctx, buildPrompt(cats, texts))
	if err != nil {
		h.ErrLog.LogUpstreamError(w, r, "textgen", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, response{Categories: cats, Suggestions: text})
}
