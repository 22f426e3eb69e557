package weather_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
	"github.com/dalemusser/taskquest/internal/app/integrations/weather"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("appid") != "k" || q.Get("lat") != "51.5" || q.Get("lon") != "-0.12" || q.Get("units") != "metric" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "London",
			"weather": [{"main": "Rain", "description": "light rain", "icon": "10d"}],
			"main": {"temp": 11.5, "feels_like": 10.2, "humidity": 81},
			"wind": {"speed": 4.1}
		}`))
	}))
	defer srv.Close()

	c := weather.New(weather.Config{BaseURL: srv.URL, APIKey: "k"})
	got, err := c.Current(context.Background(), 51.5, -0.12)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got.Location != "London" || got.Condition != "Rain" || got.Temp != 11.5 || got.Humidity != 81 {
		t.Errorf("unexpected weather %+v", got)
	}
}

func TestCurrent_NotConfigured(t *testing.T) {
	c := weather.New(weather.Config{})
	if _, err := c.Current(context.Background(), 0, 0); !errors.Is(err, upstream.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCurrent_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := weather.New(weather.Config{BaseURL: srv.URL, APIKey: "bad"})
	_, err := c.Current(context.Background(), 1, 1)
	var se *upstream.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 status error, got %v", err)
	}
}
