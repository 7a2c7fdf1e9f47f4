package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresSubscriptionRepository persists subscriber→channel edges.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes subscriberID to channelID, or unsubscribes when already
// subscribed, and reports the resulting state.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin subscription toggle: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`, subscriberID, channelID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	subscribed := false
	if tag.RowsAffected() == 0 {
		_, err = tx.Exec(ctx, `
            INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
            VALUES ($1, $2, $3, NOW())
            ON CONFLICT DO NOTHING
        `, uuid.NewString(), subscriberID, channelID)
		if err != nil {
			_ = tx.Rollback(ctx)
			if db.IsForeignKeyViolation(err) {
				return false, ErrNotFound
			}
			return false, fmt.Errorf("insert subscription: %w", err)
		}
		subscribed = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit subscription toggle: %w", err)
	}
	return subscribed, nil
}

// ListSubscribers returns the users subscribed to channelID.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.OwnerSummary, error) {
	return r.listUsers(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar
        FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// ListChannels returns the channels subscriberID follows.
func (r *PostgresSubscriptionRepository) ListChannels(ctx context.Context, subscriberID string) ([]models.OwnerSummary, error) {
	return r.listUsers(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar
        FROM subscriptions s JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listUsers(ctx context.Context, query, id string) ([]models.OwnerSummary, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	users := make([]models.OwnerSummary, 0)
	for rows.Next() {
		var u models.OwnerSummary
		if err := rows.Scan(&u.ID, &u.UserName, &u.FullName, &u.Avatar); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return users, nil
}
