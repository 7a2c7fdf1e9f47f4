package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresViewRepository runs the joined read queries behind channel pages,
// watch history and the dashboard.
type PostgresViewRepository struct {
	pool db.Pool
}

// NewPostgresViewRepository constructs a read-model repository backed by PostgreSQL.
func NewPostgresViewRepository(pool db.Pool) *PostgresViewRepository {
	return &PostgresViewRepository{pool: pool}
}

// ChannelProfile loads the channel named username with its subscription counts.
// viewerID may be empty for anonymous viewers, in which case IsSubscribed is false.
func (r *PostgresViewRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	var p models.ChannelProfile
	err := r.pool.QueryRow(ctx, `
        SELECT u.id, u.username, u.full_name, u.email, u.avatar, u.cover_image,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
        FROM users u
        WHERE u.username = $1
    `, username, nullable(viewerID)).Scan(
		&p.ID, &p.UserName, &p.FullName, &p.Email, &p.Avatar, &p.CoverImage,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed,
	)
	if err != nil {
		if noRows(err) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}
	return p, nil
}

// WatchHistory resolves a user's watch history to videos in the order they were watched.
func (r *PostgresViewRepository) WatchHistory(ctx context.Context, userID string) ([]models.Video, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+videoColumns+`
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE h.user_id = $1
        ORDER BY h.watched_at ASC, h.id ASC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}
	return videos, nil
}

// VideoTotals returns the number of videos ownerID uploaded and their summed
// views. found is false when the owner has no videos.
func (r *PostgresViewRepository) VideoTotals(ctx context.Context, ownerID string) (videos, views int64, found bool, err error) {
	err = r.pool.QueryRow(ctx, `
        SELECT COUNT(*), COALESCE(SUM(views), 0)::BIGINT
        FROM videos WHERE owner_id = $1
        GROUP BY owner_id
    `, ownerID).Scan(&videos, &views)
	if err != nil {
		if noRows(err) {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("aggregate video totals: %w", err)
	}
	return videos, views, true, nil
}

// SubscriberTotal returns how many users subscribe to channelID.
func (r *PostgresViewRepository) SubscriberTotal(ctx context.Context, channelID string) (int64, bool, error) {
	return r.groupedCount(ctx, "subscriber total", `
        SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1 GROUP BY channel_id
    `, channelID)
}

// LikeTotal returns how many likes the videos owned by ownerID have received.
func (r *PostgresViewRepository) LikeTotal(ctx context.Context, ownerID string) (int64, bool, error) {
	return r.groupedCount(ctx, "like total", `
        SELECT COUNT(*)
        FROM likes l JOIN videos v ON v.id = l.video_id
        WHERE v.owner_id = $1
        GROUP BY v.owner_id
    `, ownerID)
}

func (r *PostgresViewRepository) groupedCount(ctx context.Context, label, query, id string) (int64, bool, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		if noRows(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("aggregate %s: %w", label, err)
	}
	return count, true, nil
}
