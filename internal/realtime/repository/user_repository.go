package repository

import (
	"context"
	"time"

	"community_social_service/internal/realtime/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// UserStatusRepository writes presence fields to the user-identity store.
// Nothing is read back; presence is advisory and the in-memory tracker is
// the serving copy.
type UserStatusRepository interface {
	UpdateStatus(ctx context.Context, userID string, state domain.PresenceState, lastSeenAt *time.Time) error
}

type userStatusRepository struct {
	db *pgxpool.Pool
}

// NewUserStatusRepository create a UserStatusRepository
func NewUserStatusRepository(db *pgxpool.Pool) UserStatusRepository {
	return &userStatusRepository{db: db}
}

func (r *userStatusRepository) UpdateStatus(ctx context.Context, userID string, state domain.PresenceState, lastSeenAt *time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE app_user SET status = $1, last_seen_at = $2 WHERE user_id = $3",
		string(state), lastSeenAt, userID)
	return err
}
