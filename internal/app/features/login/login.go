package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/authutil"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/normalize"
	"github.com/dalemusser/taskquest/internal/app/system/status"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const badCredentials = "Invalid email or password."

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/login.
//
// Unknown emails and wrong passwords get the same 401 and the same bcrypt
// work so the endpoint does not reveal which accounts exist. The audit log
// keeps them apart.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode login body", err, "Invalid request body.")
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		uierrors.Invalid(w, "Email and password are required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email, limitType(reason))
			jsonutil.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	u, err := userstore.New(h.DB).GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		authutil.CheckNoPassword(in.Password)
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		jsonutil.Error(w, http.StatusUnauthorized, badCredentials)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.")
		return
	}

	matched := false
	if u.PasswordHash != nil {
		matched = authutil.CheckPassword(in.Password, *u.PasswordHash)
	} else {
		authutil.CheckNoPassword(in.Password)
	}
	if !matched {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		jsonutil.Error(w, http.StatusUnauthorized, badCredentials)
		return
	}

	if normalize.Status(u.Status) == status.Disabled {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, email)
		jsonutil.Error(w, http.StatusForbidden, "Your account is disabled.")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Could not sign you in.")
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email)
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()))

	jsonutil.Write(w, http.StatusOK, u)
}

func limitType(reason string) string {
	if strings.Contains(reason, "account") {
		return "email"
	}
	return "ip"
}
