package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	hc := upstream.NewHTTPClient(0)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ok", nil)
	var out struct {
		Value int `json:"value"`
	}
	if err := upstream.DoJSON(context.Background(), hc, "test", req, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("value = %d, want 42", out.Value)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/fail", nil)
	err := upstream.DoJSON(context.Background(), hc, "test", req, &out)
	var se *upstream.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusTooManyRequests || se.Body != "quota exceeded" {
		t.Errorf("unexpected status error %+v", se)
	}
}

func TestTrimBase(t *testing.T) {
	if got := upstream.TrimBase("", "https://a.example/"); got != "https://a.example" {
		t.Errorf("got %q", got)
	}
	if got := upstream.TrimBase("http://x//", "https://a.example"); got != "http://x" {
		t.Errorf("got %q", got)
	}
}
