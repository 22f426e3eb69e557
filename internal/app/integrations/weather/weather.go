// Package weather proxies OpenWeatherMap's current-weather endpoint.
package weather

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
)

const defaultBaseURL = "https://api.openweathermap.org"

type Config struct {
	BaseURL string
	APIKey  string
	Units   string // metric, imperial or standard; default metric
	Timeout time.Duration
}

// Current is the trimmed weather view returned to the app.
type Current struct {
	Location    string  `json:"location"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Units       string  `json:"units"`
}

type Client struct {
	base  string
	key   string
	units string
	hc    *http.Client
}

func New(cfg Config) *Client {
	units := cfg.Units
	if units == "" {
		units = "metric"
	}
	return &Client{
		base:  upstream.TrimBase(cfg.BaseURL, defaultBaseURL),
		key:   cfg.APIKey,
		units: units,
		hc:    upstream.NewHTTPClient(cfg.Timeout),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c != nil && c.key != "" }

type owmResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches the weather at lat/lon.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Current, error) {
	if !c.Configured() {
		return nil, upstream.ErrNotConfigured
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", c.units)
	q.Set("appid", c.key)

	req, err := http.NewRequest(http.MethodGet, c.base+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var raw owmResponse
	if err := upstream.DoJSON(ctx, c.hc, "weather", req, &raw); err != nil {
		return nil, err
	}

	out := &Current{
		Location:  raw.Name,
		Temp:      raw.Main.Temp,
		FeelsLike: raw.Main.FeelsLike,
		Humidity:  raw.Main.Humidity,
		WindSpeed: raw.Wind.Speed,
		Units:     c.units,
	}
	if len(raw.Weather) > 0 {
		out.Condition = raw.Weather[0].Main
		out.Description = raw.Weather[0].Description
		out.Icon = raw.Weather[0].Icon
	}
	return out, nil
}
