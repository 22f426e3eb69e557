// Package blobstore names and serves uploaded files (profile images, task
// documents) kept in a waffle storage.Store.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// NewKey builds a unique object key of the form
// <area>/<owner>/YYYY/MM/<uuid8>-<filename>.
func NewKey(area, owner, filename string) string {
	now := time.Now().UTC()
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], SanitizeFilename(filename))
	return path.Join(area, owner, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", now.Month()), name)
}

// SanitizeFilename keeps the base name and replaces anything outside
// [A-Za-z0-9._-] with '_'. Long names are cut to 100 bytes, keeping a short
// extension.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == "/" {
		return "file"
	}

	out := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) > 100 {
		ext := filepath.Ext(string(out))
		if ext != "" && len(ext) < 10 {
			out = append(out[:100-len(ext)], ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}

// Remove deletes the objects at keys. Missing objects count as deleted and
// empty keys are skipped.
func Remove(ctx context.Context, s storage.Store, keys ...string) error {
	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			paths = append(paths, k)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	if _, err := s.DeleteMany(ctx, paths); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete objects: %w", err)
	}
	return nil
}
