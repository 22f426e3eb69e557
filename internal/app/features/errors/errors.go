// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/taskquest/internal/app/integrations/upstream"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// ErrorLogger writes JSON error responses and logs the failures worth
// looking at. Every handler holds one.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger bound to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fs = append(fs, zap.String("user_id", u.ID))
	}
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	return fs
}

// LogServerError logs msg at error level and replies 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Error(msg, e.fields(r, err)...)
	if userMsg == "" {
		userMsg = "Something went wrong."
	}
	jsonutil.Error(w, http.StatusInternalServerError, userMsg)
}

// LogBadRequest logs msg at debug level and replies 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.Log.Debug(msg, e.fields(r, err)...)
	jsonutil.Error(w, http.StatusBadRequest, userMsg)
}

// LogUpstreamError replies 503 when the integration is not configured and
// 502 for any other upstream failure.
func (e *ErrorLogger) LogUpstreamError(w http.ResponseWriter, r *http.Request, service string, err error) {
	if stderrors.Is(err, upstream.ErrNotConfigured) {
		e.Log.Warn(service+" not configured", e.fields(r, nil)...)
		jsonutil.Error(w, http.StatusServiceUnavailable, service+" is not configured.")
		return
	}
	e.Log.Warn(service+" upstream call failed", e.fields(r, err)...)
	jsonutil.Error(w, http.StatusBadGateway, service+" is unavailable right now.")
}
