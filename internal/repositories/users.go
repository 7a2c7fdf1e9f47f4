package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const userColumns = `id, username, email, full_name, avatar, cover_image, password_hash, COALESCE(refresh_token, ''), verified, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. Duplicate usernames or emails yield ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash, verified, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, user.ID, user.UserName, user.Email, user.FullName, user.Avatar, user.CoverImage, user.Password, user.Verified, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByLogin fetches the user whose email or username matches.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, email, username string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $2 LIMIT 1`, email, username)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if noRows(err) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func scanUser(row scanner) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.UserName, &user.Email, &user.FullName, &user.Avatar, &user.CoverImage,
		&user.Password, &user.RefreshToken, &user.Verified, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

// UpdateProfile saves the mutable profile fields of user.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, user models.User) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, avatar = $4, cover_image = $5, updated_at = $6
        WHERE id = $1
    `, user.ID, user.FullName, user.Email, user.Avatar, user.CoverImage, user.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash and, when clearSession is set, the refresh token.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, clearSession bool) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if clearSession {
		query = `UPDATE users SET password_hash = $2, refresh_token = NULL, updated_at = $3 WHERE id = $1`
	}
	return r.execOne(ctx, "update password", query, id, passwordHash, time.Now().UTC())
}

// SetRefreshToken stores the single active refresh token; "" clears it.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.execOne(ctx, "set refresh token", `UPDATE users SET refresh_token = $2 WHERE id = $1`, id, nullable(token))
}

// MarkVerified flags the account as verified.
func (r *PostgresUserRepository) MarkVerified(ctx context.Context, id string) error {
	return r.execOne(ctx, "mark verified", `UPDATE users SET verified = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
}

// AppendWatchHistory records that userID watched videoID.
func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, id, userID, videoID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO watch_history (id, user_id, video_id, watched_at)
        VALUES ($1, $2, $3, $4)
    `, id, userID, videoID, at)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("append watch history: %w", err)
	}
	return nil
}

// RemoveWatchHistory deletes every history entry of userID for videoID.
func (r *PostgresUserRepository) RemoveWatchHistory(ctx context.Context, userID, videoID string) error {
	return r.execOne(ctx, "remove watch history", `DELETE FROM watch_history WHERE user_id = $1 AND video_id = $2`, userID, videoID)
}

func (r *PostgresUserRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
