package categories

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	categorystore "github.com/dalemusser/taskquest/internal/app/store/categories"
	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/blobstore"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/app/system/txn"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /api/categories/{id}. The category and all of
// its tasks are removed together; attached documents are deleted from
// object storage afterwards.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := categoryID(w, r)
	if !ok {
		return
	}
	uid := su.ObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		paths   []string
		removed int64
	)
	err := txn.Run(ctx, h.DB.Client(), h.Log, func(ctx context.Context) error {
		if err := categorystore.New(h.DB).Delete(ctx, uid, id); err != nil {
			return err
		}
		var err error
		paths, removed, err = taskstore.New(h.DB).DeleteByCategory(ctx, uid, id)
		return err
	})
	if errors.Is(err, categorystore.ErrNotFound) {
		uierrors.NotFound(w, "Category not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete category", err, "Failed to delete category.")
		return
	}

	if err := blobstore.Remove(ctx, h.Blobs, paths...); err != nil {
		h.Log.Warn("failed to delete task documents", zap.Strings("keys", paths), zap.Error(err))
	}

	jsonutil.Write(w, http.StatusOK, map[string]any{"deleted_tasks": removed})
}
