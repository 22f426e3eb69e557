// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
	})
	return r
}
