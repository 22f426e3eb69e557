package login

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/authutil"
	"github.com/dalemusser/taskquest/internal/app/system/inputval"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"go.uber.org/zap"
)

type registerRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=60" label:"First name"`
	LastName    string `json:"last_name" validate:"required,max=60" label:"Last name"`
	Email       string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password    string `json:"password" validate:"required" label:"Password"`
	Nationality string `json:"nationality" validate:"max=60" label:"Nationality"`
	Gender      string `json:"gender" validate:"max=30" label:"Gender"`
	Age         int    `json:"age" validate:"min=0,max=130" label:"Age"`
}

// HandleRegister handles POST /api/register. On success the new user is
// signed in and returned with 201.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode register body", err, "Invalid request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.Invalid(w, res.First())
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		uierrors.Invalid(w, err.Error())
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Failed to create account.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := userstore.New(h.DB).Create(ctx, models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: &hash,
		Nationality:  in.Nationality,
		Gender:       in.Gender,
		Age:          in.Age,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		uierrors.Conflict(w, "An account with this email already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user failed", err, "Failed to create account.")
		return
	}

	h.AuditLog.Registered(ctx, r, u.ID, u.Email)

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("sign in after register failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	jsonutil.Write(w, http.StatusCreated, u)
}
