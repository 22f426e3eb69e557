// Package upload reads a single file from a multipart request.
package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dalemusser/taskquest/internal/app/system/limits"
)

var (
	// ErrMissingFile is returned when the form has no file under the field.
	ErrMissingFile = errors.New("no file uploaded")
	// ErrTooLarge is returned when the request exceeds the size limit.
	ErrTooLarge = errors.New("file is too large")
	// ErrType is returned when the sniffed content type is not allowed.
	ErrType = errors.New("file type is not allowed")
)

// File is an uploaded file ready to stream into storage. Close it when done.
type File struct {
	multipart.File
	Name        string
	Size        int64
	ContentType string
}

// Read parses a multipart body of at most maxBytes and returns the file in
// field. The content type is sniffed from the first 512 bytes; when allow is
// non-nil it must accept it.
func Read(w http.ResponseWriter, r *http.Request, field string, maxBytes int64, allow func(contentType string) bool) (*File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+limits.MultipartOverhead)
	if err := r.ParseMultipartForm(limits.MultipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, ErrTooLarge
		}
		return nil, err
	}

	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrMissingFile
		}
		return nil, err
	}
	if header.Size <= 0 {
		f.Close()
		return nil, ErrMissingFile
	}
	if header.Size > maxBytes {
		f.Close()
		return nil, ErrTooLarge
	}

	ct := detectContentType(f)
	if allow != nil && !allow(ct) {
		f.Close()
		return nil, ErrType
	}
	return &File{File: f, Name: header.Filename, Size: header.Size, ContentType: ct}, nil
}

// detectContentType sniffs the first 512 bytes and rewinds.
func detectContentType(f io.ReadSeeker) string {
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	_, _ = f.Seek(0, io.SeekStart)
	if n == 0 {
		return "application/octet-stream"
	}
	ct := http.DetectContentType(buf[:n])
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// Images accepts the image types browsers and phones produce.
func Images(ct string) bool {
	switch ct {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// Documents accepts images, PDFs, plain text and the generic binary type
// (office formats sniff as zip or octet-stream).
func Documents(ct string) bool {
	if Images(ct) {
		return true
	}
	switch ct {
	case "application/pdf", "text/plain", "application/zip", "application/octet-stream":
		return true
	}
	return false
}
