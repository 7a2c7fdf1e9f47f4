package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
)

// TweetRepository captures the persistence operations used by TweetService.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
}

// TweetService manages channel posts.
type TweetService struct {
	tweets TweetRepository
	now    clock
}

func NewTweetService(tweets TweetRepository) *TweetService {
	return &TweetService{tweets: tweets}
}

func (s *TweetService) Create(ctx context.Context, ownerID, content string) (models.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Tweet{}, apperr.BadRequest("content is required")
	}

	now := s.now.now()
	tweet := models.Tweet{ID: uuid.NewString(), OwnerID: ownerID, Content: content, CreatedAt: now, UpdatedAt: now}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return models.Tweet{}, translate(err, "create tweet", "user not found")
	}
	return tweet, nil
}

func (s *TweetService) ListByUser(ctx context.Context, userID string) ([]models.Tweet, error) {
	tweets, err := s.tweets.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list tweets", err)
	}
	return tweets, nil
}

func (s *TweetService) Update(ctx context.Context, requesterID, tweetID, content string) (models.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Tweet{}, apperr.BadRequest("content is required")
	}
	tweet, err := s.owned(ctx, requesterID, tweetID, "only the owner can edit this tweet")
	if err != nil {
		return models.Tweet{}, err
	}

	tweet.Content = content
	tweet.UpdatedAt = s.now.now()
	if err := s.tweets.Update(ctx, tweet); err != nil {
		return models.Tweet{}, translate(err, "update tweet", "tweet not found")
	}
	return tweet, nil
}

func (s *TweetService) Delete(ctx context.Context, requesterID, tweetID string) error {
	if _, err := s.owned(ctx, requesterID, tweetID, "only the owner can delete this tweet"); err != nil {
		return err
	}
	return translate(s.tweets.Delete(ctx, tweetID), "delete tweet", "tweet not found")
}

func (s *TweetService) owned(ctx context.Context, requesterID, tweetID, forbidden string) (models.Tweet, error) {
	tweet, err := s.tweets.FindByID(ctx, tweetID)
	if err != nil {
		return models.Tweet{}, translate(err, "load tweet", "tweet not found")
	}
	if err := requireOwner(tweet.OwnerID, requesterID, forbidden); err != nil {
		return models.Tweet{}, err
	}
	return tweet, nil
}
