package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"authgate/internal/database"
	"authgate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedSession(t *testing.T, db *gorm.DB, expiresAt time.Time) *domain.Session {
	t.Helper()
	s := &domain.Session{UserID: 1, ExpiresAt: expiresAt}
	require.NoError(t, db.Create(s).Error)
	require.NoError(t, db.Create(&domain.AccessToken{SessionID: s.ID, Token: fmt.Sprintf("access-%d", s.ID)}).Error)
	require.NoError(t, db.Create(&domain.RefreshToken{SessionID: s.ID, Token: fmt.Sprintf("refresh-%d", s.ID)}).Error)
	return s
}

func TestPurgeDead_SweepsExpiredAndLongInactive(t *testing.T) {
	db := setupDB(t)
	repo := NewSessionRepository(db)
	now := time.Now().UTC()

	live := seedSession(t, db, now.Add(time.Hour))
	expired := seedSession(t, db, now.Add(-time.Hour))

	// Logged out long ago: not yet expired, but past retention.
	stale := seedSession(t, db, now.Add(time.Hour))
	require.NoError(t, db.Model(&domain.Session{}).Where("id = ?", stale.ID).
		UpdateColumns(map[string]any{"is_active": false, "updated_at": now.Add(-31 * 24 * time.Hour)}).Error)

	// Logged out yesterday: inside retention, must survive.
	recent := seedSession(t, db, now.Add(time.Hour))
	require.NoError(t, db.Model(&domain.Session{}).Where("id = ?", recent.ID).
		UpdateColumns(map[string]any{"is_active": false, "updated_at": now.Add(-24 * time.Hour)}).Error)

	sessions, access, refresh, err := repo.PurgeDead(context.Background(), now, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sessions)
	assert.Equal(t, int64(2), access)
	assert.Equal(t, int64(2), refresh)

	var ids []int64
	require.NoError(t, db.Model(&domain.Session{}).Order("id").Pluck("id", &ids).Error)
	assert.Equal(t, []int64{live.ID, recent.ID}, ids)

	for _, gone := range []int64{expired.ID, stale.ID} {
		var count int64
		require.NoError(t, db.Model(&domain.AccessToken{}).Where("session_id = ?", gone).Count(&count).Error)
		assert.Zero(t, count)
		require.NoError(t, db.Model(&domain.RefreshToken{}).Where("session_id = ?", gone).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestPurgeDead_NothingToDo(t *testing.T) {
	db := setupDB(t)
	repo := NewSessionRepository(db)
	now := time.Now().UTC()

	seedSession(t, db, now.Add(time.Hour))

	sessions, access, refresh, err := repo.PurgeDead(context.Background(), now, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, sessions)
	assert.Zero(t, access)
	assert.Zero(t, refresh)
}
