package models

import "time"

// User represents an account holder and channel.
type User struct {
	ID           string    `json:"_id"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	Password     string    `json:"-"`
	RefreshToken string    `json:"-"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnerSummary is the public projection of a user embedded in other read models.
type OwnerSummary struct {
	ID       string `json:"_id"`
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Video is an uploaded video and its metadata.
type Video struct {
	ID          string        `json:"_id"`
	OwnerID     string        `json:"owner"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	VideoFile   string        `json:"videoFile"`
	Thumbnail   string        `json:"thumbnail"`
	Duration    float64       `json:"duration"`
	Views       int64         `json:"views"`
	IsPublished bool          `json:"isPublished"`
	Owner       *OwnerSummary `json:"ownerDetails,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Comment is a user comment on a video.
type Comment struct {
	ID        string        `json:"_id"`
	VideoID   string        `json:"video"`
	OwnerID   string        `json:"owner"`
	Content   string        `json:"content"`
	Owner     *OwnerSummary `json:"ownerDetails,omitempty"`
	LikeCount int64         `json:"likesCount"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Tweet is a short text post on a channel.
type Tweet struct {
	ID        string    `json:"_id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeTarget identifies what a like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Subscription is the edge between a subscriber and a channel.
type Subscription struct {
	ID           string    `json:"_id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Playlist is an ordered, duplicate-free collection of videos owned by a user.
type Playlist struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Videos      []Video   `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChannelProfile is the public view of a channel as seen by a viewer.
type ChannelProfile struct {
	ID                        string `json:"_id"`
	UserName                  string `json:"userName"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// ChannelStats summarises a channel's totals for the dashboard.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// SessionTokens captures issued authentication tokens.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// VideoFilter narrows video listings.
type VideoFilter struct {
	Query         string
	OwnerID       string
	PublishedOnly bool
	SortBy        string
	SortDesc      bool
	Limit         int
	Offset        int
}
