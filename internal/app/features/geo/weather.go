package geo

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeWeather handles GET /api/weather?lat=&lon=.
func (h *Handler) ServeWeather(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := coordinates(r)
	if !ok {
		uierrors.Invalid(w, "lat and lon must be valid coordinates.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Integration())
	defer cancel()

	cur, err := h.Weather.Current(ctx, lat, lon)
	if err != nil {
		h.ErrLog.LogUpstreamError(w, r, "weather", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, cur)
}

// coordinates reads lat and lon; both are required and must be in range.
func coordinates(r *http.Request) (lat, lon float64, ok bool) {
	lat, ok = parseCoord(query.Get(r, "lat"), 90)
	if !ok {
		return 0, 0, false
	}
	lon, ok = parseCoord(query.Get(r, "lon"), 180)
	if !ok {
		return 0, 0, false
	}
	return lat, lon, true
}

func parseCoord(s string, limit float64) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < -limit || f > limit {
		return 0, false
	}
	return f, true
}
