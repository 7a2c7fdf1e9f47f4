package repositories

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresPlaylistRepository persists playlists and their video membership.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert playlist: %w", err)
	}
	return nil
}

// FindByID fetches a playlist and its videos in insertion order.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	var p models.Playlist
	err := r.pool.QueryRow(ctx, `
        SELECT id, owner_id, name, description, created_at, updated_at
        FROM playlists WHERE id = $1
    `, id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if noRows(err) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}

	videos, err := r.playlistVideos(ctx, []string{p.ID})
	if err != nil {
		return models.Playlist{}, err
	}
	p.Videos = videos[p.ID]
	if p.Videos == nil {
		p.Videos = []models.Video{}
	}
	return p, nil
}

func (r *PostgresPlaylistRepository) Update(ctx context.Context, playlist models.Playlist) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
    `, playlist.ID, playlist.Name, playlist.Description, playlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner returns every playlist a user owns, newest first, with videos attached.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, owner_id, name, description, created_at, updated_at
        FROM playlists WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}

	playlists := make([]models.Playlist, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
		ids = append(ids, p.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	if len(ids) == 0 {
		return playlists, nil
	}

	videos, err := r.playlistVideos(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		playlists[i].Videos = videos[playlists[i].ID]
		if playlists[i].Videos == nil {
			playlists[i].Videos = []models.Video{}
		}
	}
	return playlists, nil
}

func (r *PostgresPlaylistRepository) playlistVideos(ctx context.Context, playlistIDs []string) (map[string][]models.Video, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT pv.playlist_id, `+videoColumns+`
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE pv.playlist_id = ANY($1)
        ORDER BY pv.added_at ASC, v.id ASC
    `, playlistIDs)
	if err != nil {
		return nil, fmt.Errorf("list playlist videos: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.Video, len(playlistIDs))
	for rows.Next() {
		var (
			playlistID string
			video      models.Video
			owner      models.OwnerSummary
		)
		if err := rows.Scan(&playlistID,
			&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile, &video.Thumbnail,
			&video.Duration, &video.Views, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
			&owner.ID, &owner.UserName, &owner.FullName, &owner.Avatar,
		); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		video.Owner = &owner
		result[playlistID] = append(result[playlistID], video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist videos: %w", err)
	}
	return result, nil
}

// AddVideo appends videoID to the playlist. A video already present yields ErrConflict.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	tag, err := r.pool.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT DO NOTHING
    `, playlistID, videoID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("add playlist video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// RemoveVideo drops videoID from the playlist. A video not present yields ErrNotFound.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
	if err != nil {
		return fmt.Errorf("remove playlist video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
