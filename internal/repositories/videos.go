package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const videoColumns = `v.id, v.owner_id, v.title, v.description, v.video_file, v.thumbnail, v.duration, v.views, v.is_published, v.created_at, v.updated_at,
        o.id, o.username, o.full_name, o.avatar`

const videoFrom = ` FROM videos v JOIN users o ON o.id = v.owner_id`

// sortColumns whitelists the sortBy values accepted by List.
var sortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

// PostgresVideoRepository persists videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create inserts a new video.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_file, thumbnail, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoFile, video.Thumbnail,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindByID fetches a video with its owner summary.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	video, err := scanVideo(r.pool.QueryRow(ctx, `SELECT `+videoColumns+videoFrom+` WHERE v.id = $1`, id))
	if err != nil {
		if noRows(err) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// Update saves title, description and thumbnail.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE videos SET title = $2, description = $3, thumbnail = $4, updated_at = $5
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Thumbnail, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a video; comments, likes, history and playlist entries cascade.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublished flips the publish flag in one statement and returns the new value.
func (r *PostgresVideoRepository) TogglePublished(ctx context.Context, id string) (bool, error) {
	var published bool
	err := r.pool.QueryRow(ctx, `
        UPDATE videos SET is_published = NOT is_published, updated_at = NOW()
        WHERE id = $1
        RETURNING is_published
    `, id).Scan(&published)
	if err != nil {
		if noRows(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle publish: %w", err)
	}
	return published, nil
}

// IncrementViews adds one view to the video.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// List returns videos matching filter. Search is a case-insensitive substring
// match on title and description.
func (r *PostgresVideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, error) {
	query, args := buildVideoListQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func buildVideoListQuery(filter models.VideoFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.PublishedOnly {
		where = append(where, "v.is_published = TRUE")
	}
	if filter.OwnerID != "" {
		where = append(where, "v.owner_id = "+arg(filter.OwnerID))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		where = append(where, fmt.Sprintf("(v.title ILIKE %s OR v.description ILIKE %s)", p, p))
	}

	var b strings.Builder
	b.WriteString("SELECT " + videoColumns + videoFrom)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	b.WriteString(fmt.Sprintf(" ORDER BY %s %s, v.id %s", column, direction, direction))

	if filter.Limit > 0 {
		b.WriteString(" LIMIT " + arg(filter.Limit))
		b.WriteString(" OFFSET " + arg(filter.Offset))
	}
	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanVideo(row scanner) (models.Video, error) {
	var (
		video models.Video
		owner models.OwnerSummary
	)
	err := row.Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile, &video.Thumbnail,
		&video.Duration, &video.Views, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
		&owner.ID, &owner.UserName, &owner.FullName, &owner.Avatar,
	)
	if err != nil {
		return models.Video{}, err
	}
	video.Owner = &owner
	return video, nil
}
