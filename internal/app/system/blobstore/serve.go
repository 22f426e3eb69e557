package blobstore

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
)

// ServeOptions tunes Serve.
type ServeOptions struct {
	// ContentType overrides the type recorded by the backend.
	ContentType string
	// FileName, when set, is sent as an attachment filename.
	FileName string
	// TTL is the lifetime of presigned URLs. Zero always streams.
	TTL time.Duration
}

// Serve writes the object at key to w. Backends that can presign get a 302
// to the signed URL; others are streamed. Errors are returned before anything
// is written so the caller can choose the response.
func Serve(w http.ResponseWriter, r *http.Request, s storage.Store, key string, opts ServeOptions) error {
	ctx := r.Context()
	disposition := ""
	if opts.FileName != "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": opts.FileName})
	}

	if opts.TTL > 0 {
		url, err := s.PresignedURL(ctx, key, &storage.PresignOptions{
			Expires:            opts.TTL,
			ContentType:        opts.ContentType,
			ContentDisposition: disposition,
		})
		if err == nil {
			http.Redirect(w, r, url, http.StatusFound)
			return nil
		}
		if !errors.Is(err, storage.ErrPresignNotSupported) {
			return err
		}
	}

	rc, info, err := s.GetWithInfo(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	ct := opts.ContentType
	if ct == "" && info != nil {
		ct = info.ContentType
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	if info != nil && info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
	return nil
}
