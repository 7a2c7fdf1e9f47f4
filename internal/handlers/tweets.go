package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/respond"
)

// TweetHandler implements the /api/v1/tweets endpoints.
type TweetHandler struct {
	Tweets TweetService
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.Create(ctx, identity.UserID, req.Content)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListByUser handles GET /api/v1/tweets/user/{userId}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := pathID(r, "userId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	tweets, err := h.Tweets.ListByUser(ctx, userID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, tweets, "Tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.Update(ctx, identity.UserID, tweetID, req.Content)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, tweet, "Tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	tweetID, err := pathID(r, "tweetId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if err := h.Tweets.Delete(ctx, identity.UserID, tweetID); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]string{"tweetId": tweetID}, "Tweet deleted successfully")
}

// DashboardHandler implements the /api/v1/dashboard endpoints.
type DashboardHandler struct {
	Dashboard DashboardService
}

// Stats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	stats, err := h.Dashboard.Stats(ctx, identity.UserID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, stats, "Channel stats fetched successfully")
}

// Videos handles GET /api/v1/dashboard/videos.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	videos, err := h.Dashboard.Videos(ctx, identity.UserID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, videos, "Channel videos fetched successfully")
}
