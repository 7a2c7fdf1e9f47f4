package services

import (
	"context"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/views"
)

// VideoLister lists videos matching a filter.
type VideoLister interface {
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, error)
}

// DashboardService serves a channel owner's own totals and uploads.
type DashboardService struct {
	stats  views.StatsSource
	videos VideoLister
}

func NewDashboardService(stats views.StatsSource, videos VideoLister) *DashboardService {
	return &DashboardService{stats: stats, videos: videos}
}

func (s *DashboardService) Stats(ctx context.Context, userID string) (models.ChannelStats, error) {
	return s.stats.ChannelStats(ctx, userID)
}

// Videos returns every video owned by userID, newest first, published or not.
func (s *DashboardService) Videos(ctx context.Context, userID string) ([]models.Video, error) {
	videos, err := s.videos.List(ctx, models.VideoFilter{OwnerID: userID, SortBy: "createdAt", SortDesc: true})
	if err != nil {
		return nil, apperr.Internal("list channel videos", err)
	}
	return videos, nil
}
