package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
)

const multipartMemory = 32 << 20

// Uploads stages multipart file parts in Dir until the media service picks them up.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

func (u Uploads) parse(w http.ResponseWriter, r *http.Request) error {
	if u.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequest("upload exceeds the size limit")
		}
		return apperr.BadRequest("invalid multipart form")
	}
	return nil
}

// stage copies the named file part to a temp file and returns its path, or ""
// when the part is absent.
func (u Uploads) stage(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperr.BadRequest("invalid " + field + " file")
	}
	defer file.Close()

	dir := u.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Internal("prepare upload directory", err)
	}

	dst, err := os.CreateTemp(dir, "upload-*"+strings.ToLower(filepath.Ext(header.Filename)))
	if err != nil {
		return "", apperr.Internal("stage upload", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", apperr.Internal("stage upload", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", apperr.Internal("stage upload", err)
	}
	return dst.Name(), nil
}

// cleanup removes staged files the media service did not consume and the
// parsed multipart form.
func cleanup(r *http.Request, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(r.Context()).Warn("remove staged upload", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}
