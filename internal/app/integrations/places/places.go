// Package places proxies Google Places Autocomplete.
package places

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
	"googlemaps.github.io/maps"
)

// DefaultRadius is the location bias radius in meters when lat/lon are given.
const DefaultRadius = 50000

type Config struct {
	// BaseURL overrides https://maps.googleapis.com.
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Prediction is one autocomplete suggestion.
type Prediction struct {
	PlaceID       string `json:"place_id"`
	Description   string `json:"description"`
	MainText      string `json:"main_text"`
	SecondaryText string `json:"secondary_text"`
}

// Bias optionally centers predictions near a point.
type Bias struct {
	Lat, Lon float64
	Radius   int
}

type Client struct {
	maps *maps.Client
}

// New builds a client. Without an API key the client is returned
// unconfigured and every call fails with upstream.ErrNotConfigured.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return &Client{}, nil
	}
	opts := []maps.ClientOption{
		maps.WithAPIKey(cfg.APIKey),
		maps.WithHTTPClient(upstream.NewHTTPClient(cfg.Timeout)),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, maps.WithBaseURL(strings.TrimRight(base, "/")))
	}
	mc, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &Client{maps: mc}, nil
}

func (c *Client) Configured() bool { return c != nil && c.maps != nil }

// Autocomplete returns predictions for input. bias may be nil.
// ZERO_RESULTS yields an empty slice; any other non-OK status is an error.
func (c *Client) Autocomplete(ctx context.Context, input string, bias *Bias) ([]Prediction, error) {
	if !c.Configured() {
		return nil, upstream.ErrNotConfigured
	}
	req := &maps.PlaceAutocompleteRequest{Input: input}
	if bias != nil {
		radius := bias.Radius
		if radius <= 0 {
			radius = DefaultRadius
		}
		req.Location = &maps.LatLng{Lat: bias.Lat, Lng: bias.Lon}
		req.Radius = uint(radius)
	}

	resp, err := c.maps.PlaceAutocomplete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("places: %w", err)
	}
	out := make([]Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, Prediction{
			PlaceID:       p.PlaceID,
			Description:   p.Description,
			MainText:      p.StructuredFormatting.MainText,
			SecondaryText: p.StructuredFormatting.SecondaryText,
		})
	}
	return out, nil
}
