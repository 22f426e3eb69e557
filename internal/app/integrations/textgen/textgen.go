// Package textgen generates short texts with the Gemini API.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
	"google.golang.org/genai"
)

// DefaultModel is used when the config leaves the model empty.
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("textgen: empty response")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests and proxies
	Timeout time.Duration
}

type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// New builds a client. An empty API key yields an unconfigured client whose
// calls fail with upstream.ErrNotConfigured.
func New(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{model: cfg.Model, timeout: cfg.Timeout}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if cfg.APIKey == "" {
		return c, nil
	}

	gc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		gc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, gc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client
	return c, nil
}

func (c *Client) Configured() bool { return c != nil && c.client != nil }

// Generate sends prompt to the model and returns its text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", upstream.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("textgen: %w", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
