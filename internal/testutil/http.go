package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/domain/models"
)

// SessionUserFor builds the session view of a fixture user.
func SessionUserFor(u models.User) *auth.SessionUser {
	return &auth.SessionUser{
		ID:     u.ID.Hex(),
		Name:   u.FullName(),
		Email:  u.Email,
		Points: u.Points,
	}
}

// NewRequest creates an unauthenticated request with an optional body.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewAuthenticatedRequest creates a request carrying u as the signed-in user.
func NewAuthenticatedRequest(method, target string, body io.Reader, u models.User) *http.Request {
	return auth.WithTestUser(httptest.NewRequest(method, target, body), SessionUserFor(u))
}

// NewJSONRequest marshals v as the body of an authenticated request.
func NewJSONRequest(t *testing.T, method, target string, v any, u models.User) *http.Request {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := NewAuthenticatedRequest(method, target, bytes.NewReader(b), u)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with assertion helpers.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus fails the test when the status code differs.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Fatalf("expected status %d, got %d (body: %s)", expected, r.Code, strings.TrimSpace(r.Body.String()))
	}
}

// AssertContains fails the test when the body lacks expected.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("expected body to contain %q, got %q", expected, r.Body.String())
	}
}

// DecodeJSON unmarshals the body into v.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body %q: %v", r.Body.String(), err)
	}
}

// ErrorMessage returns the "error" field of a JSON error body.
func (r *ResponseRecorder) ErrorMessage(t testing.TB) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	r.DecodeJSON(t, &body)
	return body.Error
}
