package geo_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	"github.com/dalemusser/taskquest/internal/app/features/geo"
	"github.com/dalemusser/taskquest/internal/app/integrations/places"
	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
	"github.com/dalemusser/taskquest/internal/app/integrations/weather"
	"github.com/dalemusser/taskquest/internal/testutil"
	"go.uber.org/zap"
)

type fakePlaces struct {
	preds    []places.Prediction
	err      error
	gotInput string
	gotBias  *places.Bias
}

func (f *fakePlaces) Autocomplete(_ context.Context, input string, bias *places.Bias) ([]places.Prediction, error) {
	f.gotInput = input
	f.gotBias = bias
	return f.preds, f.err
}

func newHandler(w geo.WeatherSource, p geo.PlaceSource) *geo.Handler {
	logger := zap.NewNop()
	return geo.NewHandler(w, p, uierrors.NewErrorLogger(logger), logger)
}

func TestServeWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != "k" {
			http.Error(w, "bad key", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Nairobi","weather":[{"main":"Clouds","description":"broken clouds","icon":"04d"}],"main":{"temp":21.5,"feels_like":21,"humidity":60},"wind":{"speed":3.1}}`))
	}))
	defer srv.Close()

	h := newHandler(weather.New(weather.Config{BaseURL: srv.URL, APIKey: "k"}), &fakePlaces{})

	rec := testutil.NewRecorder()
	h.ServeWeather(rec, testutil.NewRequest("GET", "/api/weather?lat=-1.29&lon=36.82", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"location":"Nairobi"`)
	rec.AssertContains(t, `"condition":"Clouds"`)
}

func TestServeWeather_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		client *weather.Client
		target string
		want   int
	}{
		{"missing lon", weather.New(weather.Config{BaseURL: srv.URL, APIKey: "k"}), "/api/weather?lat=1", http.StatusUnprocessableEntity},
		{"out of range", weather.New(weather.Config{BaseURL: srv.URL, APIKey: "k"}), "/api/weather?lat=95&lon=1", http.StatusUnprocessableEntity},
		{"not configured", weather.New(weather.Config{BaseURL: srv.URL}), "/api/weather?lat=1&lon=1", http.StatusServiceUnavailable},
		{"upstream failure", weather.New(weather.Config{BaseURL: srv.URL, APIKey: "k"}), "/api/weather?lat=1&lon=1", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			newHandler(tt.client, &fakePlaces{}).ServeWeather(rec, testutil.NewRequest("GET", tt.target, nil))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestServeAutocomplete(t *testing.T) {
	fp := &fakePlaces{preds: []places.Prediction{{PlaceID: "p1", Description: "Kenyatta Avenue, Nairobi"}}}
	h := newHandler(nil, fp)

	rec := testutil.NewRecorder()
	h.ServeAutocomplete(rec, testutil.NewRequest("GET", "/api/places/autocomplete?input=Kenyatta&lat=-1.29&lon=36.82", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"predictions"`)
	rec.AssertContains(t, "Kenyatta Avenue")
	if fp.gotInput != "Kenyatta" {
		t.Errorf("input = %q", fp.gotInput)
	}
	if fp.gotBias == nil || fp.gotBias.Radius != places.DefaultRadius {
		t.Errorf("bias = %+v", fp.gotBias)
	}

	rec = testutil.NewRecorder()
	h.ServeAutocomplete(rec, testutil.NewRequest("GET", "/api/places/autocomplete?input=Kenyatta", nil))
	rec.AssertStatus(t, http.StatusOK)
	if fp.gotBias != nil {
		t.Errorf("expected no bias without coordinates, got %+v", fp.gotBias)
	}
}

func TestServeAutocomplete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		places *fakePlaces
		target string
		want   int
	}{
		{"missing input", &fakePlaces{}, "/api/places/autocomplete", http.StatusUnprocessableEntity},
		{"half coordinates", &fakePlaces{}, "/api/places/autocomplete?input=x&lat=1", http.StatusUnprocessableEntity},
		{"not configured", &fakePlaces{err: upstream.ErrNotConfigured}, "/api/places/autocomplete?input=x", http.StatusServiceUnavailable},
		{"upstream failure", &fakePlaces{err: errors.New("dial tcp: refused")}, "/api/places/autocomplete?input=x", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			newHandler(nil, tt.places).ServeAutocomplete(rec, testutil.NewRequest("GET", tt.target, nil))
			rec.AssertStatus(t, tt.want)
		})
	}
}
