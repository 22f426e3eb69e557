// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
)

// Unauthorized replies 401.
func Unauthorized(w http.ResponseWriter) {
	jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
}

// NotFound replies 404 with msg, or a generic message when msg is empty.
func NotFound(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "Not found."
	}
	jsonutil.Error(w, http.StatusNotFound, msg)
}

// Conflict replies 409 with msg.
func Conflict(w http.ResponseWriter, msg string) {
	jsonutil.Error(w, http.StatusConflict, msg)
}

// Invalid replies 422 with msg; used for input that parsed but failed
// validation.
func Invalid(w http.ResponseWriter, msg string) {
	jsonutil.Error(w, http.StatusUnprocessableEntity, msg)
}

// RouteNotFound is the router's NotFound handler.
func RouteNotFound(w http.ResponseWriter, r *http.Request) {
	NotFound(w, "No such endpoint.")
}

// MethodNotAllowed is the router's MethodNotAllowed handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
