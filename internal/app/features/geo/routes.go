package geo

import (
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WeatherRoutes is mounted at /api/weather.
func WeatherRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeWeather)
	return r
}

// PlacesRoutes is mounted at /api/places.
func PlacesRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/autocomplete", h.ServeAutocomplete)
	return r
}
