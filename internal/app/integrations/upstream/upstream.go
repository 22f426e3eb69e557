// Package upstream holds the plumbing shared by the external API clients:
// a "not configured" sentinel, a typed status error and a JSON round trip.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned by a client whose API key is missing.
// Handlers map it to 503.
var ErrNotConfigured = errors.New("integration not configured")

// DefaultTimeout bounds a single upstream call when the config leaves it unset.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 2048

// StatusError reports a non-2xx response from an upstream API.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Service, e.StatusCode, e.Body)
}

// NewHTTPClient returns a client with timeout applied, or DefaultTimeout
// when timeout is not positive.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// TrimBase strips trailing slashes so paths can be appended directly.
func TrimBase(base, def string) string {
	if strings.TrimSpace(base) == "" {
		base = def
	}
	return strings.TrimRight(base, "/")
}

// DoJSON sends req and decodes a 2xx JSON body into out. Non-2xx responses
// become *StatusError.
func DoJSON(ctx context.Context, hc *http.Client, service string, req *http.Request, out any) error {
	req = req.WithContext(ctx)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Service: service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}
