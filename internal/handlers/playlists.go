package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/respond"
)

// PlaylistHandler implements the /api/v1/playlists endpoints.
type PlaylistHandler struct {
	Playlists PlaylistService
}

type createPlaylistRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type updatePlaylistRequest struct {
	Name        string `json:"name" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	var req createPlaylistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.Create(ctx, identity.UserID, req.Name, req.Description)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusCreated, playlist, "Playlist created successfully")
}

// ListByUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := pathID(r, "userId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	playlists, err := h.Playlists.ListByUser(ctx, userID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, playlists, "Playlists fetched successfully")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	playlist, err := h.Playlists.Get(ctx, playlistID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, playlist, "Playlist fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	var req updatePlaylistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.Update(ctx, identity.UserID, playlistID, req.Name, req.Description)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, playlist, "Playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if err := h.Playlists.Delete(ctx, identity.UserID, playlistID); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]string{"playlistId": playlistID}, "Playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlists/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.editMembership(w, r, true)
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.editMembership(w, r, false)
}

func (h PlaylistHandler) editMembership(w http.ResponseWriter, r *http.Request, add bool) {
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
	playlistID, err := pathID(r, "playlistId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	edit, message := h.Playlists.RemoveVideo, "Video removed from playlist"
	if add {
		edit, message = h.Playlists.AddVideo, "Video added to playlist"
	}
	playlist, err := edit(ctx, identity.UserID, playlistID, videoID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, playlist, message)
}
