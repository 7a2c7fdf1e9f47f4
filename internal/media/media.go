package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
)

// ErrEmptyFile indicates the staged upload has no content.
var ErrEmptyFile = errors.New("media: empty file")

// Backend uploads content to durable storage and returns its public URL.
type Backend interface {
	Upload(ctx context.Context, folder, name string, body io.ReadSeeker, contentType string) (string, error)
}

// Prober reports the playback duration of a media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Asset is a stored media file.
type Asset struct {
	URL      string
	Duration float64
}

// Service moves staged uploads into a Backend.
type Service struct {
	backend Backend
	prober  Prober
}

// NewService constructs a Service. prober may be nil, in which case durations are zero.
func NewService(backend Backend, prober Prober) *Service {
	return &Service{backend: backend, prober: prober}
}

// Store uploads the file at localPath under folder. The local file is removed
// whether or not the upload succeeds.
func (s *Service) Store(ctx context.Context, localPath, folder string) (Asset, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("remove staged upload", slog.String("path", localPath), slog.String("error", err.Error()))
		}
	}()

	if s == nil || s.backend == nil {
		return Asset{}, errors.New("media: storage backend not configured")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("open staged upload: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Asset{}, fmt.Errorf("read staged upload: %w", err)
	}
	if n == 0 {
		return Asset{}, ErrEmptyFile
	}
	contentType := http.DetectContentType(head[:n])
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Asset{}, fmt.Errorf("rewind staged upload: %w", err)
	}

	var asset Asset
	if s.prober != nil && strings.HasPrefix(contentType, "video/") {
		duration, err := s.prober.Duration(ctx, localPath)
		if err != nil {
			logging.FromContext(ctx).Warn("probe media duration", slog.String("error", err.Error()))
		} else {
			asset.Duration = duration
		}
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	url, err := s.backend.Upload(ctx, strings.Trim(folder, "/"), name, f, contentType)
	if err != nil {
		return Asset{}, fmt.Errorf("upload %s: %w", name, err)
	}
	asset.URL = url
	return asset, nil
}
