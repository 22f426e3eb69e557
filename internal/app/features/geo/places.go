package geo

import (
	"context"
	"net/http"
	"unicode/utf8"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/integrations/places"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

const maxInputLen = 200

// ServeAutocomplete handles GET /api/places/autocomplete?input=&lat=&lon=.
// lat/lon are optional and bias results toward that point.
func (h *Handler) ServeAutocomplete(w http.ResponseWriter, r *http.Request) {
	input := query.Get(r, "input")
	if input == "" {
		uierrors.Invalid(w, "input is required.")
		return
	}
	if utf8.RuneCountInString(input) > maxInputLen {
		uierrors.Invalid(w, "input is too long.")
		return
	}

	var bias *places.Bias
	if query.Get(r, "lat") != "" || query.Get(r, "lon") != "" {
		lat, lon, ok := coordinates(r)
		if !ok {
			uierrors.Invalid(w, "lat and lon must be valid coordinates.")
			return
		}
		bias = &places.Bias{Lat: lat, Lon: lon, Radius: places.DefaultRadius}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Integration())
	defer cancel()

	preds, err := h.Places.Autocomplete(ctx, input, bias)
	if err != nil {
		h.ErrLog.LogUpstreamError(w, r, "places", err)
		return
	}
	if preds == nil {
		preds = []places.Prediction{}
	}
	jsonutil.Write(w, http.StatusOK, map[string]any{"predictions": preds})
}
