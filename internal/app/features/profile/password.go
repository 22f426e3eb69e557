package profile

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/authutil"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword handles POST /api/profile/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var in changePasswordRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode password body", err, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users := userstore.New(h.DB)
	user, err := users.GetByID(ctx, su.ObjectID())
	if err != nil {
		uierrors.NotFound(w, "User not found.")
		return
	}

	// Verify current password
	if user.PasswordHash == nil || !authutil.CheckPassword(in.CurrentPassword, *user.PasswordHash) {
		jsonutil.Error(w, http.StatusForbidden, "Current password is incorrect.")
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword); err != nil {
		uierrors.Invalid(w, err.Error())
		return
	}
	// Don't allow reusing the current password
	if authutil.CheckPassword(in.NewPassword, *user.PasswordHash) {
		uierrors.Invalid(w, "New password cannot be the same as your current password.")
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Failed to update password.")
		return
	}
	if err := users.SetPasswordHash(ctx, user.ID, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "update password failed", err, "Failed to update password.")
		return
	}
	h.AuditLog.PasswordChanged(ctx, r, user.ID)

	w.WriteHeader(http.StatusNoContent)
}
