package tasks

import (
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/tasks.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/complete", h.HandleComplete)
	r.Post("/{id}/documents", h.HandleUploadDocument)
	r.Get("/{id}/documents/{index}", h.ServeDocument)
	r.Delete("/{id}/documents/{index}", h.HandleDeleteDocument)
	return r
}
