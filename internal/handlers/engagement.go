package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/respond"
	"github.com/vidtube/backend/internal/services"
)

type contentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// CommentHandler implements the /api/v1/comments endpoints.
type CommentHandler struct {
	Comments CommentService
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	page, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	comments, err := h.Comments.List(ctx, videoID, page)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, comments, "Comments fetched successfully")
}

// Add handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	comment, err := h.Comments.Add(ctx, identity.UserID, videoID, req.Content)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	comment, err := h.Comments.Update(ctx, identity.UserID, commentID, req.Content)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, comment, "Comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if err := h.Comments.Delete(ctx, identity.UserID, commentID); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]string{"commentId": commentID}, "Comment deleted successfully")
}

// LikeHandler implements the /api/v1/likes endpoints.
type LikeHandler struct {
	Likes LikeService
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo, "videoId")
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment, "commentId")
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetTweet, "tweetId")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target models.LikeTarget, param string) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	targetID, err := pathID(r, param)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	liked, err := h.Likes.Toggle(ctx, identity.UserID, target, targetID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	message := "Disliked"
	if liked {
		message = "Liked"
	}
	respond.Success(ctx, w, http.StatusOK, map[string]bool{"liked": liked}, message)
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	page, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	videos, err := h.Likes.LikedVideos(ctx, identity.UserID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, pagination.Paginate(videos, page), "Liked videos fetched successfully")
}

// LikedTweets handles GET /api/v1/likes/tweets.
func (h LikeHandler) LikedTweets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	page, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	tweets, err := h.Likes.LikedTweets(ctx, identity.UserID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, pagination.Paginate(tweets, page), "Liked tweets fetched successfully")
}

// VideoLikeCount handles GET /api/v1/likes/count/v/{videoId}.
func (h LikeHandler) VideoLikeCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	count, err := h.Likes.VideoLikeCount(ctx, videoID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]any{"videoId": videoID, "likeCount": count}, "Like count fetched successfully")
}

// SubscriptionHandler implements the /api/v1/subscriptions endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionService
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, identity.UserID, channelID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	message := "Unsubscribed"
	if subscribed {
		message = "Subscribed"
	}
	respond.Success(ctx, w, http.StatusOK, map[string]bool{"subscribed": subscribed}, message)
}

// Channels handles GET /api/v1/subscriptions/c/{subscriberId}. The segment
// shares the toggle route's channelId parameter.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, err := services.ParseID(chi.URLParam(r, "channelId"), "subscriberId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	channels, err := h.Subscriptions.Channels(ctx, subscriberID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, channels, "Subscribed channels fetched successfully")
}

// Subscribers handles GET /api/v1/subscriptions/u/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	subscribers, err := h.Subscriptions.Subscribers(ctx, channelID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, subscribers, "Subscribers fetched successfully")
}
