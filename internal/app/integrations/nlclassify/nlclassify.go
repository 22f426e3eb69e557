// Package nlclassify calls Google Cloud Natural Language classifyText.
package nlclassify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
	"golang.org/x/oauth2/google"
	language "google.golang.org/api/language/v2"
	"google.golang.org/api/option"
)

const scopeCloudLanguage = "https://www.googleapis.com/auth/cloud-language"

type Config struct {
	// BaseURL overrides the API root, e.g. for a local emulator.
	BaseURL string
	APIKey  string
	// UseADC authenticates with Application Default Credentials when no
	// API key is set.
	UseADC  bool
	Timeout time.Duration
}

// Category is one classification result, e.g. "/Food & Drink/Cooking".
type Category struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type Client struct {
	svc     *language.Service
	timeout time.Duration
}

// New builds a client. With neither an API key nor UseADC the client is
// returned unconfigured and every call fails with upstream.ErrNotConfigured.
func New(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{timeout: cfg.Timeout}
	if c.timeout <= 0 {
		c.timeout = upstream.DefaultTimeout
	}

	var opts []option.ClientOption
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(base, "/")+"/"))
	}
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.UseADC:
		hc, err := google.DefaultClient(ctx, scopeCloudLanguage)
		if err != nil {
			return nil, fmt.Errorf("default credentials: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(hc))
	default:
		return c, nil
	}

	svc, err := language.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("language service: %w", err)
	}
	c.svc = svc
	return c, nil
}

func (c *Client) Configured() bool { return c != nil && c.svc != nil }

// Classify returns the categories for text, highest confidence first.
func (c *Client) Classify(ctx context.Context, text string) ([]Category, error) {
	if !c.Configured() {
		return nil, upstream.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Documents.ClassifyText(&language.ClassifyTextRequest{
		Document: &language.Document{
			Content: text,
			Type:    "PLAIN_TEXT",
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("nlclassify: %w", err)
	}

	out := make([]Category, 0, len(resp.Categories))
	for _, cat := range resp.Categories {
		if cat == nil {
			continue
		}
		out = append(out, Category{Name: cat.Name, Confidence: cat.Confidence})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

// TopLevel reduces a category path like "/Food & Drink/Cooking" to
// "Food & Drink".
func TopLevel(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	return name
}
