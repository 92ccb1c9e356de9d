package repository

import (
	"context"
	"time"

	"authgate/internal/domain"

	"gorm.io/gorm"
)

// SessionRepository provides DB access for login sessions. Rotation-time
// mutations run inside the rotation engine's transaction and bypass this
// type on purpose.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	var s domain.Session
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// PurgeDead deletes sessions past their expiry, sessions deactivated
// longer than retention ago, and any token rows orphaned by those
// deletes. Cutoffs are computed in Go so the same query runs on both
// postgres and sqlite.
func (r *SessionRepository) PurgeDead(ctx context.Context, now time.Time, retention time.Duration) (sessions, access, refresh int64, err error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR (is_active = ? AND updated_at < ?)", now, false, now.Add(-retention)).
		Delete(&domain.Session{})
	if res.Error != nil {
		return 0, 0, 0, res.Error
	}
	sessions = res.RowsAffected

	live := r.db.Model(&domain.Session{}).Select("id")

	res = r.db.WithContext(ctx).Where("session_id NOT IN (?)", live).Delete(&domain.AccessToken{})
	if res.Error != nil {
		return sessions, 0, 0, res.Error
	}
	access = res.RowsAffected

	res = r.db.WithContext(ctx).Where("session_id NOT IN (?)", live).Delete(&domain.RefreshToken{})
	if res.Error != nil {
		return sessions, access, 0, res.Error
	}
	refresh = res.RowsAffected

	return sessions, access, refresh, nil
}
