package services

import (
	"context"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
)

// LikeRepository captures the persistence operations used by LikeService.
type LikeRepository interface {
	Toggle(ctx context.Context, target models.LikeTarget, targetID, userID string) (bool, error)
	CountForVideo(ctx context.Context, videoID string) (int64, error)
	LikedVideos(ctx context.Context, userID string) ([]models.Video, error)
	LikedTweets(ctx context.Context, userID string) ([]models.Tweet, error)
}

// LikeService toggles and lists likes.
type LikeService struct {
	likes  LikeRepository
	videos VideoLookup
}

func NewLikeService(likes LikeRepository, videos VideoLookup) *LikeService {
	return &LikeService{likes: likes, videos: videos}
}

// Toggle likes the target when the user has not liked it yet and unlikes it
// otherwise. It reports whether the target is now liked.
func (s *LikeService) Toggle(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, error) {
	switch target {
	case models.LikeTargetVideo, models.LikeTargetComment, models.LikeTargetTweet:
	default:
		return false, apperr.BadRequest("unsupported like target")
	}
	liked, err := s.likes.Toggle(ctx, target, targetID, userID)
	if err != nil {
		return false, translate(err, "toggle like", string(target)+" not found")
	}
	return liked, nil
}

// VideoLikeCount returns the number of likes on videoID.
func (s *LikeService) VideoLikeCount(ctx context.Context, videoID string) (int64, error) {
	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		return 0, translate(err, "load video", "video not found")
	}
	count, err := s.likes.CountForVideo(ctx, videoID)
	if err != nil {
		return 0, apperr.Internal("count likes", err)
	}
	return count, nil
}

func (s *LikeService) LikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	videos, err := s.likes.LikedVideos(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list liked videos", err)
	}
	return videos, nil
}

func (s *LikeService) LikedTweets(ctx context.Context, userID string) ([]models.Tweet, error) {
	tweets, err := s.likes.LikedTweets(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list liked tweets", err)
	}
	return tweets, nil
}

// SubscriptionRepository captures the persistence operations used by SubscriptionService.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.OwnerSummary, error)
	ListChannels(ctx context.Context, subscriberID string) ([]models.OwnerSummary, error)
}

// UserLookup resolves a user by ID.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SubscriptionService toggles and lists channel subscriptions.
type SubscriptionService struct {
	subscriptions SubscriptionRepository
	users         UserLookup
}

func NewSubscriptionService(subscriptions SubscriptionRepository, users UserLookup) *SubscriptionService {
	return &SubscriptionService{subscriptions: subscriptions, users: users}
}

// Toggle subscribes subscriberID to channelID, or unsubscribes when already
// subscribed. It reports whether the subscription now exists.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, apperr.BadRequest("you cannot subscribe to your own channel")
	}
	subscribed, err := s.subscriptions.Toggle(ctx, subscriberID, channelID)
	if err != nil {
		return false, translate(err, "toggle subscription", "channel not found")
	}
	return subscribed, nil
}

// Subscribers lists the users subscribed to channelID.
func (s *SubscriptionService) Subscribers(ctx context.Context, channelID string) ([]models.OwnerSummary, error) {
	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		return nil, translate(err, "load channel", "channel not found")
	}
	users, err := s.subscriptions.ListSubscribers(ctx, channelID)
	if err != nil {
		return nil, apperr.Internal("list subscribers", err)
	}
	return users, nil
}

// Channels lists the channels subscriberID follows.
func (s *SubscriptionService) Channels(ctx context.Context, subscriberID string) ([]models.OwnerSummary, error) {
	if _, err := s.users.FindByID(ctx, subscriberID); err != nil {
		return nil, translate(err, "load subscriber", "subscriber not found")
	}
	channels, err := s.subscriptions.ListChannels(ctx, subscriberID)
	if err != nil {
		return nil, apperr.Internal("list subscribed channels", err)
	}
	return channels, nil
}
