package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// PlaylistRepository captures the persistence operations used by PlaylistService.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// PlaylistService manages playlists and their membership.
type PlaylistService struct {
	playlists PlaylistRepository
	now       clock
}

func NewPlaylistService(playlists PlaylistRepository) *PlaylistService {
	return &PlaylistService{playlists: playlists}
}

func (s *PlaylistService) Create(ctx context.Context, ownerID, name, description string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, apperr.BadRequest("name is required")
	}

	now := s.now.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Videos:      []models.Video{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		return models.Playlist{}, translate(err, "create playlist", "user not found")
	}
	return playlist, nil
}

func (s *PlaylistService) Get(ctx context.Context, playlistID string) (models.Playlist, error) {
	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, translate(err, "load playlist", "playlist not found")
	}
	return playlist, nil
}

func (s *PlaylistService) ListByUser(ctx context.Context, userID string) ([]models.Playlist, error) {
	playlists, err := s.playlists.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list playlists", err)
	}
	return playlists, nil
}

// Update renames or re-describes a playlist owned by requesterID.
func (s *PlaylistService) Update(ctx context.Context, requesterID, playlistID, name, description string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" && description == "" {
		return models.Playlist{}, apperr.BadRequest("name or description is required")
	}
	playlist, err := s.owned(ctx, requesterID, playlistID, "only the owner can update this playlist")
	if err != nil {
		return models.Playlist{}, err
	}

	if name != "" {
		playlist.Name = name
	}
	if description != "" {
		playlist.Description = description
	}
	playlist.UpdatedAt = s.now.now()
	if err := s.playlists.Update(ctx, playlist); err != nil {
		return models.Playlist{}, translate(err, "update playlist", "playlist not found")
	}
	return playlist, nil
}

func (s *PlaylistService) Delete(ctx context.Context, requesterID, playlistID string) error {
	if _, err := s.owned(ctx, requesterID, playlistID, "only the owner can delete this playlist"); err != nil {
		return err
	}
	return translate(s.playlists.Delete(ctx, playlistID), "delete playlist", "playlist not found")
}

// AddVideo appends videoID to the playlist. A video already present is rejected.
func (s *PlaylistService) AddVideo(ctx context.Context, requesterID, playlistID, videoID string) (models.Playlist, error) {
	if _, err := s.owned(ctx, requesterID, playlistID, "only the owner can add videos to this playlist"); err != nil {
		return models.Playlist{}, err
	}
	if err := s.playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.BadRequest("video already in playlist")
		}
		return models.Playlist{}, translate(err, "add playlist video", "video not found")
	}
	return s.Get(ctx, playlistID)
}

// RemoveVideo drops videoID from the playlist. A video not present is rejected.
func (s *PlaylistService) RemoveVideo(ctx context.Context, requesterID, playlistID, videoID string) (models.Playlist, error) {
	if _, err := s.owned(ctx, requesterID, playlistID, "only the owner can remove videos from this playlist"); err != nil {
		return models.Playlist{}, err
	}
	if err := s.playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, apperr.BadRequest("video not in playlist")
		}
		return models.Playlist{}, apperr.Internal("remove playlist video", err)
	}
	return s.Get(ctx, playlistID)
}

func (s *PlaylistService) owned(ctx context.Context, requesterID, playlistID, forbidden string) (models.Playlist, error) {
	playlist, err := s.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, translate(err, "load playlist", "playlist not found")
	}
	if err := requireOwner(playlist.OwnerID, requesterID, forbidden); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}
