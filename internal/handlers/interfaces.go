package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/services"
)

// AccountService captures the account flows behind the user endpoints.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (models.User, error)
	Login(ctx context.Context, in services.LoginInput) (models.User, models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, in services.UpdateProfileInput) (models.User, error)
	VerifyEmail(ctx context.Context, tok auth.ActionToken) error
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, tok auth.ActionToken) error
	ResetPassword(ctx context.Context, tok auth.ActionToken, newPassword string) error
	AddToWatchHistory(ctx context.Context, userID, videoID string) error
	RemoveFromWatchHistory(ctx context.Context, userID, videoID string) error
}

// ChannelViews builds joined channel read models.
type ChannelViews interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.Video, error)
}

// VideoService captures video publishing and listing.
type VideoService interface {
	ListPublished(ctx context.Context, q services.VideoQuery) ([]models.Video, error)
	ListOwn(ctx context.Context, requesterID string, q services.VideoQuery) ([]models.Video, error)
	Publish(ctx context.Context, ownerID string, in services.PublishInput) (models.Video, error)
	Get(ctx context.Context, requesterID, videoID string) (models.Video, error)
	Update(ctx context.Context, requesterID, videoID string, in services.UpdateVideoInput) (models.Video, error)
	Delete(ctx context.Context, requesterID, videoID string) error
	TogglePublish(ctx context.Context, requesterID, videoID string) (bool, error)
}

// CommentService captures comment operations.
type CommentService interface {
	List(ctx context.Context, videoID string, page pagination.Params) ([]models.Comment, error)
	Add(ctx context.Context, ownerID, videoID, content string) (models.Comment, error)
	Update(ctx context.Context, requesterID, commentID, content string) (models.Comment, error)
	Delete(ctx context.Context, requesterID, commentID string) error
}

// LikeService captures like toggles and listings.
type LikeService interface {
	Toggle(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, error)
	VideoLikeCount(ctx context.Context, videoID string) (int64, error)
	LikedVideos(ctx context.Context, userID string) ([]models.Video, error)
	LikedTweets(ctx context.Context, userID string) ([]models.Tweet, error)
}

// SubscriptionService captures subscription toggles and listings.
type SubscriptionService interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	Subscribers(ctx context.Context, channelID string) ([]models.OwnerSummary, error)
	Channels(ctx context.Context, subscriberID string) ([]models.OwnerSummary, error)
}

// PlaylistService captures playlist operations.
type PlaylistService interface {
	Create(ctx context.Context, ownerID, name, description string) (models.Playlist, error)
	Get(ctx context.Context, playlistID string) (models.Playlist, error)
	ListByUser(ctx context.Context, userID string) ([]models.Playlist, error)
	Update(ctx context.Context, requesterID, playlistID, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, requesterID, playlistID string) error
	AddVideo(ctx context.Context, requesterID, playlistID, videoID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, requesterID, playlistID, videoID string) (models.Playlist, error)
}

// TweetService captures tweet operations.
type TweetService interface {
	Create(ctx context.Context, ownerID, content string) (models.Tweet, error)
	ListByUser(ctx context.Context, userID string) ([]models.Tweet, error)
	Update(ctx context.Context, requesterID, tweetID, content string) (models.Tweet, error)
	Delete(ctx context.Context, requesterID, tweetID string) error
}

// DashboardService captures the channel owner's dashboard.
type DashboardService interface {
	Stats(ctx context.Context, userID string) (models.ChannelStats, error)
	Videos(ctx context.Context, userID string) ([]models.Video, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
