package views

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// Store runs the joined read queries the aggregator composes.
type Store interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.Video, error)
	VideoTotals(ctx context.Context, ownerID string) (videos, views int64, found bool, err error)
	SubscriberTotal(ctx context.Context, channelID string) (int64, bool, error)
	LikeTotal(ctx context.Context, ownerID string) (int64, bool, error)
}

// StatsSource produces dashboard totals for a channel.
type StatsSource interface {
	ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error)
}

// Aggregator builds channel pages, watch history and dashboard totals.
type Aggregator struct {
	store Store
}

// NewAggregator constructs an Aggregator over store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// ChannelProfile returns the public profile of username as seen by viewerID.
func (a *Aggregator) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperr.BadRequest("username is missing")
	}

	profile, err := a.store.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ChannelProfile{}, apperr.NotFound("channel does not exist")
		}
		return models.ChannelProfile{}, apperr.Internal("load channel profile", err)
	}
	return profile, nil
}

// WatchHistory returns the videos userID watched, oldest first. Videos deleted
// since they were watched are skipped.
func (a *Aggregator) WatchHistory(ctx context.Context, userID string) ([]models.Video, error) {
	history, err := a.store.WatchHistory(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("load watch history", err)
	}
	return history, nil
}

// ChannelStats combines the video, subscriber and like aggregations for
// userID. An aggregation with no rows contributes zero.
func (a *Aggregator) ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error) {
	ctx, span := logging.StartSpan(ctx, "views.channel_stats")
	defer span.End()

	var stats models.ChannelStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		videos, views, found, err := a.store.VideoTotals(gctx, userID)
		if err != nil {
			return err
		}
		if found {
			stats.TotalVideos = videos
			stats.TotalViews = views
		}
		return nil
	})
	g.Go(func() error {
		subscribers, found, err := a.store.SubscriberTotal(gctx, userID)
		if err != nil {
			return err
		}
		if found {
			stats.TotalSubscribers = subscribers
		}
		return nil
	})
	g.Go(func() error {
		likes, found, err := a.store.LikeTotal(gctx, userID)
		if err != nil {
			return err
		}
		if found {
			stats.TotalLikes = likes
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return models.ChannelStats{}, apperr.Internal("load channel stats", err)
	}
	return stats, nil
}
