// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/inputval"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/domain/models"
)

type profileResponse struct {
	models.User
	HasImage bool `json:"has_image"`
}

type updateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"max=60" label:"First name"`
	LastName    *string `json:"last_name" validate:"max=60" label:"Last name"`
	Nationality *string `json:"nationality" validate:"max=60" label:"Nationality"`
	Gender      *string `json:"gender" validate:"max=30" label:"Gender"`
	Age         *int    `json:"age" validate:"min=0,max=130" label:"Age"`
}

// ServeProfile handles GET /api/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, su.ObjectID())
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile", err, "")
		return
	}
	jsonutil.Write(w, http.StatusOK, profileResponse{User: *u, HasImage: u.HasProfileImage()})
}

// HandleUpdateProfile handles PATCH /api/profile. Omitted fields are left
// unchanged; names cannot be cleared.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	var in updateProfileRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode profile body", err, "Invalid request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.Invalid(w, res.First())
		return
	}
	if (in.FirstName != nil && blank(*in.FirstName)) || (in.LastName != nil && blank(*in.LastName)) {
		uierrors.Invalid(w, "Names cannot be empty.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := userstore.New(h.DB).UpdateProfile(ctx, su.ObjectID(), userstore.ProfileUpdate{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Nationality: in.Nationality,
		Gender:      in.Gender,
		Age:         in.Age,
	})
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update profile", err, "Failed to save profile.")
		return
	}
	jsonutil.Write(w, http.StatusOK, profileResponse{User: *u, HasImage: u.HasProfileImage()})
}

func blank(s string) bool {
	for _, c := range s {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}
