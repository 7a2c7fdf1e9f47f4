package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
)

// VideoRepository captures the persistence operations used by VideoService.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	TogglePublished(ctx context.Context, id string) (bool, error)
	IncrementViews(ctx context.Context, id string) error
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, error)
}

var videoSortFields = map[string]bool{"createdAt": true, "views": true, "duration": true, "title": true}

// VideoQuery holds the listing parameters accepted by the video endpoints.
type VideoQuery struct {
	Page     pagination.Params
	Query    string
	SortBy   string
	SortType string
	UserID   string
}

func (q VideoQuery) filter() (models.VideoFilter, error) {
	sortBy := strings.TrimSpace(q.SortBy)
	if sortBy != "" && !videoSortFields[sortBy] {
		return models.VideoFilter{}, apperr.BadRequest("sortBy must be one of createdAt, views, duration, title")
	}

	var desc bool
	switch strings.ToLower(strings.TrimSpace(q.SortType)) {
	case "", "desc":
		desc = true
	case "asc":
	default:
		return models.VideoFilter{}, apperr.BadRequest("sortType must be asc or desc")
	}

	return models.VideoFilter{
		Query:    q.Query,
		OwnerID:  q.UserID,
		SortBy:   sortBy,
		SortDesc: desc,
		Limit:    q.Page.Limit,
		Offset:   q.Page.Offset(),
	}, nil
}

// VideoService publishes, lists and manages videos.
type VideoService struct {
	videos VideoRepository
	media  MediaStore
	now    clock
}

func NewVideoService(videos VideoRepository, media MediaStore) *VideoService {
	return &VideoService{videos: videos, media: media}
}

// ListPublished returns published videos from every channel.
func (s *VideoService) ListPublished(ctx context.Context, q VideoQuery) ([]models.Video, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	filter.PublishedOnly = true
	videos, err := s.videos.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("list videos", err)
	}
	return videos, nil
}

// ListOwn returns the requester's videos, published or not.
func (s *VideoService) ListOwn(ctx context.Context, requesterID string, q VideoQuery) ([]models.Video, error) {
	q.UserID = requesterID
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	videos, err := s.videos.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("list videos", err)
	}
	return videos, nil
}

// PublishInput describes a new video. VideoPath and ThumbnailPath are staged uploads.
type PublishInput struct {
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

// Publish uploads both files and creates an unpublished video. Any upload
// failure aborts without persisting a record.
func (s *VideoService) Publish(ctx context.Context, ownerID string, in PublishInput) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return models.Video{}, apperr.BadRequest("title and description are required")
	}
	if in.VideoPath == "" || in.ThumbnailPath == "" {
		return models.Video{}, apperr.BadRequest("video and thumbnail files are required")
	}

	file, err := s.media.Store(ctx, in.VideoPath, folderVideos)
	if err != nil {
		return models.Video{}, apperr.Internal("video upload failed", err)
	}
	thumb, err := s.media.Store(ctx, in.ThumbnailPath, folderThumbnails)
	if err != nil {
		return models.Video{}, apperr.Internal("thumbnail upload failed", err)
	}

	now := s.now.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		VideoFile:   file.URL,
		Thumbnail:   thumb.URL,
		Duration:    file.Duration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return models.Video{}, translate(err, "create video", "owner not found")
	}
	return video, nil
}

// Get returns a video. Unpublished videos are only visible to their owner;
// anyone else viewing the video counts as a view.
func (s *VideoService) Get(ctx context.Context, requesterID, videoID string) (models.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, translate(err, "load video", "video not found")
	}
	if video.OwnerID == requesterID {
		return video, nil
	}
	if !video.IsPublished {
		return models.Video{}, apperr.NotFound("video not found")
	}

	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		logging.FromContext(ctx).Warn("increment views", slog.String("video_id", videoID), slog.String("error", err.Error()))
	} else {
		video.Views++
	}
	return video, nil
}

// UpdateVideoInput lists optional metadata changes.
type UpdateVideoInput struct {
	Title         string
	Description   string
	ThumbnailPath string
}

// Update changes metadata on a video owned by requesterID. A failed thumbnail
// upload keeps the current thumbnail.
func (s *VideoService) Update(ctx context.Context, requesterID, videoID string, in UpdateVideoInput) (models.Video, error) {
	video, err := s.owned(ctx, requesterID, videoID, "only the owner can update this video")
	if err != nil {
		return models.Video{}, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		video.Title = title
	}
	if description := strings.TrimSpace(in.Description); description != "" {
		video.Description = description
	}
	if in.ThumbnailPath != "" {
		if asset, err := s.media.Store(ctx, in.ThumbnailPath, folderThumbnails); err != nil {
			logging.FromContext(ctx).Warn("thumbnail upload failed", slog.String("video_id", videoID), slog.String("error", err.Error()))
		} else {
			video.Thumbnail = asset.URL
		}
	}
	video.UpdatedAt = s.now.now()

	if err := s.videos.Update(ctx, video); err != nil {
		return models.Video{}, translate(err, "update video", "video not found")
	}
	return video, nil
}

// Delete removes a video owned by requesterID.
func (s *VideoService) Delete(ctx context.Context, requesterID, videoID string) error {
	if _, err := s.owned(ctx, requesterID, videoID, "only the owner can delete this video"); err != nil {
		return err
	}
	return translate(s.videos.Delete(ctx, videoID), "delete video", "video not found")
}

// TogglePublish flips the publish flag and returns the new state.
func (s *VideoService) TogglePublish(ctx context.Context, requesterID, videoID string) (bool, error) {
	if _, err := s.owned(ctx, requesterID, videoID, "only the owner can publish this video"); err != nil {
		return false, err
	}
	published, err := s.videos.TogglePublished(ctx, videoID)
	if err != nil {
		return false, translate(err, "toggle publish", "video not found")
	}
	return published, nil
}

func (s *VideoService) owned(ctx context.Context, requesterID, videoID, forbidden string) (models.Video, error) {
	video, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, translate(err, "load video", "video not found")
	}
	if err := requireOwner(video.OwnerID, requesterID, forbidden); err != nil {
		return models.Video{}, err
	}
	return video, nil
}
