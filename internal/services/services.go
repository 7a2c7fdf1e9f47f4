// Package services holds the business rules behind each HTTP resource:
// ownership gates, toggles, validation, uploads and mail triggers.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/repositories"
)

// MediaStore moves a staged upload into durable storage.
type MediaStore interface {
	Store(ctx context.Context, localPath, folder string) (media.Asset, error)
}

const (
	folderAvatars    = "avatars"
	folderCovers     = "covers"
	folderVideos     = "videos"
	folderThumbnails = "thumbnails"
)

// ParseID validates a UUID path parameter, naming it in the error.
func ParseID(raw, name string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.BadRequest(name + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.BadRequest("invalid " + name)
	}
	return id.String(), nil
}

// translate maps repository sentinels onto application errors.
func translate(err error, op, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, repositories.ErrConflict):
		return apperr.Conflict(op + " conflicts with an existing record")
	default:
		return apperr.Internal(op, err)
	}
}

func requireOwner(ownerID, requesterID, message string) error {
	if ownerID != requesterID {
		return apperr.Forbidden(message)
	}
	return nil
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
