package profile

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	userstore "github.com/dalemusser/taskquest/internal/app/store/users"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/blobstore"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/app/system/upload"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// HandleUploadImage handles PUT /api/profile/image (multipart field "image").
// The previous image, if any, is deleted after the new one is recorded.
func (h *Handler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	f, err := upload.Read(w, r, "image", MaxImageBytes, upload.Images)
	switch {
	case errors.Is(err, upload.ErrMissingFile):
		uierrors.Invalid(w, "An image file is required.")
		return
	case errors.Is(err, upload.ErrTooLarge):
		jsonutil.Error(w, http.StatusRequestEntityTooLarge, "Image must be at most 5 MB.")
		return
	case errors.Is(err, upload.ErrType):
		jsonutil.Error(w, http.StatusUnsupportedMediaType, "Image must be JPEG, PNG, GIF or WebP.")
		return
	case err != nil:
		h.ErrLog.LogBadRequest(w, r, "read image upload", err, "Invalid upload.")
		return
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	key := blobstore.NewKey("profile", su.ID, f.Name)
	if err := h.Blobs.Put(ctx, key, f, &storage.PutOptions{ContentType: f.ContentType}); err != nil {
		h.ErrLog.LogServerError(w, r, "store profile image", err, "Failed to upload image.")
		return
	}

	prev, err := userstore.New(h.DB).SetProfileImage(ctx, su.ObjectID(), key, f.ContentType)
	if err != nil {
		if delErr := blobstore.Remove(ctx, h.Blobs, key); delErr != nil {
			h.Log.Warn("failed to remove orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		h.ErrLog.LogServerError(w, r, "record profile image", err, "Failed to upload image.")
		return
	}
	if prev != "" && prev != key {
		if err := blobstore.Remove(ctx, h.Blobs, prev); err != nil {
			h.Log.Warn("failed to delete previous profile image", zap.String("key", prev), zap.Error(err))
		}
	}

	jsonutil.Write(w, http.StatusOK, map[string]any{
		"content_type": f.ContentType,
		"size":         f.Size,
	})
}

// ServeImage handles GET /api/profile/image. Backends that can sign URLs
// redirect; the local backend streams the bytes.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, su.ObjectID())
	if err != nil && !errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.LogServerError(w, r, "load profile", err, "")
		return
	}
	if u == nil || !u.HasProfileImage() {
		uierrors.NotFound(w, "No profile image.")
		return
	}
	err = blobstore.Serve(w, r, h.Blobs, u.ProfileImagePath, blobstore.ServeOptions{
		ContentType: u.ProfileImageType,
		TTL:         h.PresignTTL,
	})
	if errors.Is(err, storage.ErrNotFound) {
		uierrors.NotFound(w, "No profile image.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "serve profile image", err, "")
	}
}
