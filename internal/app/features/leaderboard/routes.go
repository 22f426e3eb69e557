package leaderboard

import (
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/leaderboard.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeLeaderboard)
	return r
}
