package handlers

import (
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/respond"
	"github.com/vidtube/backend/internal/services"
)

// VideoHandler implements the /api/v1/videos endpoints.
type VideoHandler struct {
	Videos  VideoService
	Uploads Uploads
}

type publishVideoRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
}

type updateVideoRequest struct {
	Title       string `json:"title" validate:"omitempty,max=200"`
	Description string `json:"description" validate:"omitempty,max=5000"`
}

func videoQuery(r *http.Request) (services.VideoQuery, error) {
	query := r.URL.Query()
	page, err := pagination.FromQuery(query)
	if err != nil {
		return services.VideoQuery{}, err
	}

	q := services.VideoQuery{
		Page:     page,
		Query:    strings.TrimSpace(query.Get("query")),
		SortBy:   query.Get("sortBy"),
		SortType: query.Get("sortType"),
	}
	if raw := strings.TrimSpace(query.Get("userId")); raw != "" {
		if q.UserID, err = services.ParseID(raw, "userId"); err != nil {
			return services.VideoQuery{}, err
		}
	}
	return q, nil
}

// ListPublished handles GET /api/v1/videos/all-video.
func (h VideoHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := videoQuery(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	videos, err := h.Videos.ListPublished(ctx, q)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, videos, "Videos fetched successfully")
}

// ListOwn handles GET /api/v1/videos.
func (h VideoHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	q, err := videoQuery(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	videos, err := h.Videos.ListOwn(ctx, identity.UserID, q)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, videos, "Videos fetched successfully")
}

// Publish handles POST /api/v1/videos (multipart).
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	if err := h.Uploads.parse(w, r); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	var staged []string
	defer func() { cleanup(r, staged...) }()

	req := publishVideoRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if err := validateStruct(req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	for _, field := range []string{"video", "thumbnail"} {
		path, err := h.Uploads.stage(r, field)
		if err != nil {
			respond.Error(ctx, w, err)
			return
		}
		staged = append(staged, path)
	}

	video, err := h.Videos.Publish(ctx, identity.UserID, services.PublishInput{
		Title:         req.Title,
		Description:   req.Description,
		VideoPath:     staged[0],
		ThumbnailPath: staged[1],
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusCreated, video, "Video published successfully")
}

// Get handles GET /api/v1/videos/v/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	video, err := h.Videos.Get(ctx, identity.UserID, videoID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, video, "Video fetched successfully")
}

// Update handles PATCH /api/v1/videos/update-video/{videoId} (JSON or multipart).
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var (
		req       updateVideoRequest
		thumbnail string
	)
	defer func() { cleanup(r, thumbnail) }()

	if isMultipart(r) {
		if err := h.Uploads.parse(w, r); err != nil {
			respond.Error(ctx, w, err)
			return
		}
		req = updateVideoRequest{Title: strings.TrimSpace(r.FormValue("title")), Description: strings.TrimSpace(r.FormValue("description"))}
		if err := validateStruct(req); err != nil {
			respond.Error(ctx, w, err)
			return
		}
		if thumbnail, err = h.Uploads.stage(r, "thumbnail"); err != nil {
			respond.Error(ctx, w, err)
			return
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	video, err := h.Videos.Update(ctx, identity.UserID, videoID, services.UpdateVideoInput{
		Title:         req.Title,
		Description:   req.Description,
		ThumbnailPath: thumbnail,
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, video, "Video updated successfully")
}

// Delete handles DELETE /api/v1/videos/delete-video/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Videos.Delete(ctx, identity.UserID, videoID); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]string{"videoId": videoID}, "Video deleted successfully")
}

// TogglePublish handles POST /api/v1/videos/toggle-video/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
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

	published, err := h.Videos.TogglePublish(ctx, identity.UserID, videoID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	message := "Video unpublished"
	if published {
		message = "Video published"
	}
	respond.Success(ctx, w, http.StatusOK, map[string]any{"videoId": videoID, "isPublished": published}, message)
}
