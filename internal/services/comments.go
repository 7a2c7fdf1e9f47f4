package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
)

// CommentRepository captures the persistence operations used by CommentService.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
	ListByVideo(ctx context.Context, videoID string, limit, offset int) ([]models.Comment, error)
}

// VideoLookup resolves a video by id.
type VideoLookup interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// CommentService manages comments on videos.
type CommentService struct {
	comments CommentRepository
	videos   VideoLookup
	now      clock
}

func NewCommentService(comments CommentRepository, videos VideoLookup) *CommentService {
	return &CommentService{comments: comments, videos: videos}
}

// List returns a page of comments on videoID, newest first.
func (s *CommentService) List(ctx context.Context, videoID string, page pagination.Params) ([]models.Comment, error) {
	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return nil, translate(err, "load video", "video not found")
	}
	comments, err := s.comments.ListByVideo(ctx, videoID, page.Limit, page.Offset())
	if err != nil {
		return nil, apperr.Internal("list comments", err)
	}
	return comments, nil
}

// Add creates a comment by ownerID on videoID.
func (s *CommentService) Add(ctx context.Context, ownerID, videoID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.BadRequest("content is required")
	}

	now := s.now.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, translate(err, "create comment", "video not found")
	}
	return comment, nil
}

// Update replaces the content of a comment owned by requesterID.
func (s *CommentService) Update(ctx context.Context, requesterID, commentID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.BadRequest("content is required")
	}
	comment, err := s.owned(ctx, requesterID, commentID, "only the author can edit this comment")
	if err != nil {
		return models.Comment{}, err
	}

	comment.Content = content
	comment.UpdatedAt = s.now.now()
	if err := s.comments.Update(ctx, comment); err != nil {
		return models.Comment{}, translate(err, "update comment", "comment not found")
	}
	return comment, nil
}

// Delete removes a comment owned by requesterID.
func (s *CommentService) Delete(ctx context.Context, requesterID, commentID string) error {
	if _, err := s.owned(ctx, requesterID, commentID, "only the author can delete this comment"); err != nil {
		return err
	}
	return translate(s.comments.Delete(ctx, commentID), "delete comment", "comment not found")
}

func (s *CommentService) owned(ctx context.Context, requesterID, commentID, forbidden string) (models.Comment, error) {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, translate(err, "load comment", "comment not found")
	}
	if err := requireOwner(comment.OwnerID, requesterID, forbidden); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}
