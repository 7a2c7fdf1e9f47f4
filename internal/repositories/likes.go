package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

var likeColumns = map[models.LikeTarget]string{
	models.LikeTargetVideo:   "video_id",
	models.LikeTargetComment: "comment_id",
	models.LikeTargetTweet:   "tweet_id",
}

// PostgresLikeRepository persists like edges.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle removes the (target, user) like if present, otherwise creates it, and
// reports whether the target is now liked. The partial unique indexes on likes
// keep at most one edge per pair even under concurrent toggles.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, target models.LikeTarget, targetID, userID string) (bool, error) {
	column, ok := likeColumns[target]
	if !ok {
		return false, fmt.Errorf("unknown like target %q", target)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin like toggle: %w", err)
	}

	liked, err := toggleLike(ctx, tx, column, targetID, userID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit like toggle: %w", err)
	}
	return liked, nil
}

func toggleLike(ctx context.Context, tx pgx.Tx, column, targetID, userID string) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM likes WHERE `+column+` = $1 AND liked_by = $2`, targetID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO likes (id, liked_by, `+column+`, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT DO NOTHING
    `, uuid.NewString(), userID, targetID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	return true, nil
}

// CountForVideo returns the number of likes on a video.
func (r *PostgresLikeRepository) CountForVideo(ctx context.Context, videoID string) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE video_id = $1`, videoID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count video likes: %w", err)
	}
	return count, nil
}

// LikedVideos returns the videos userID liked, most recent like first.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+videoColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}
	return videos, nil
}

// LikedTweets returns the tweets userID liked, most recent like first.
func (r *PostgresLikeRepository) LikedTweets(ctx context.Context, userID string) ([]models.Tweet, error) {
	return queryTweets(ctx, r.pool, `
        SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at
        FROM likes l
        JOIN tweets t ON t.id = l.tweet_id
        WHERE l.liked_by = $1 AND l.tweet_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, userID)
}
