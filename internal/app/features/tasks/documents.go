package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/taskquest/internal/app/features/errors"
	taskstore "github.com/dalemusser/taskquest/internal/app/store/tasks"
	"github.com/dalemusser/taskquest/internal/app/system/auth"
	"github.com/dalemusser/taskquest/internal/app/system/blobstore"
	"github.com/dalemusser/taskquest/internal/app/system/jsonutil"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/taskquest/internal/app/system/upload"
	"github.com/dalemusser/taskquest/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleUploadDocument handles POST /api/tasks/{id}/documents (multipart
// field "file").
func (h *Handler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	uid := su.ObjectID()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	store := taskstore.New(h.DB)
	t, err := store.Get(ctx, uid, id)
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.NotFound(w, "Task not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load task", err, "")
		return
	}
	if len(t.Documents) >= taskstore.MaxDocuments {
		uierrors.Conflict(w, fmt.Sprintf("A task can have at most %d documents.", taskstore.MaxDocuments))
		return
	}

	f, err := upload.Read(w, r, "file", MaxDocumentBytes, upload.Documents)
	switch {
	case errors.Is(err, upload.ErrMissingFile):
		uierrors.Invalid(w, "A file is required.")
		return
	case errors.Is(err, upload.ErrTooLarge):
		jsonutil.Error(w, http.StatusRequestEntityTooLarge, "Documents must be at most 10 MB.")
		return
	case errors.Is(err, upload.ErrType):
		jsonutil.Error(w, http.StatusUnsupportedMediaType, "Unsupported document type.")
		return
	case err != nil:
		h.ErrLog.LogBadRequest(w, r, "read document upload", err, "Invalid upload.")
		return
	}
	defer f.Close()

	key := blobstore.NewKey("documents", su.ID, f.Name)
	if err := h.Blobs.Put(ctx, key, f, &storage.PutOptions{ContentType: f.ContentType}); err != nil {
		h.ErrLog.LogServerError(w, r, "store document", err, "Failed to upload document.")
		return
	}

	updated, err := store.AddDocument(ctx, uid, id, models.DocumentRef{
		Path:        key,
		FileName:    f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		UploadedAt:  time.Now().UTC(),
	})
	if err != nil {
		if delErr := blobstore.Remove(ctx, h.Blobs, key); delErr != nil {
			h.Log.Warn("failed to remove orphaned document", zap.String("key", key), zap.Error(delErr))
		}
	}
	switch {
	case errors.Is(err, taskstore.ErrNotFound):
		uierrors.NotFound(w, "Task not found.")
		return
	case errors.Is(err, taskstore.ErrTooManyDocuments):
		uierrors.Conflict(w, fmt.Sprintf("A task can have at most %d documents.", taskstore.MaxDocuments))
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "record document", err, "Failed to upload document.")
		return
	}
	jsonutil.Write(w, http.StatusCreated, withDocuments(updated))
}

// ServeDocument handles GET /api/tasks/{id}/documents/{index}.
func (h *Handler) ServeDocument(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	idx, ok := documentIndex(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	t, err := taskstore.New(h.DB).Get(ctx, su.ObjectID(), id)
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.NotFound(w, "Task not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load task", err, "")
		return
	}
	if idx >= len(t.Documents) {
		uierrors.NotFound(w, "Document not found.")
		return
	}
	doc := t.Documents[idx]

	err = blobstore.Serve(w, r, h.Blobs, doc.Path, blobstore.ServeOptions{
		ContentType: doc.ContentType,
		FileName:    doc.FileName,
		TTL:         h.PresignTTL,
	})
	if errors.Is(err, storage.ErrNotFound) {
		uierrors.NotFound(w, "Document not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "serve document", err, "")
	}
}

// HandleDeleteDocument handles DELETE /api/tasks/{id}/documents/{index}.
func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.Unauthorized(w)
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	idx, ok := documentIndex(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	doc, err := taskstore.New(h.DB).RemoveDocument(ctx, su.ObjectID(), id, idx)
	switch {
	case errors.Is(err, taskstore.ErrNotFound):
		uierrors.NotFound(w, "Task not found.")
		return
	case errors.Is(err, taskstore.ErrDocumentNotFound):
		uierrors.NotFound(w, "Document not found.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "remove document", err, "Failed to delete document.")
		return
	}
	if err := blobstore.Remove(ctx, h.Blobs, doc.Path); err != nil {
		h.Log.Warn("failed to delete task document", zap.String("key", doc.Path), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func documentIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 {
		uierrors.NotFound(w, "Document not found.")
		return 0, false
	}
	return idx, true
}
