package repository

import (
	"context"

	"authgate/internal/domain"

	"gorm.io/gorm"
)

// TokenRepository reads the token ledger. Writes (pair creation, expiry
// flips) happen inside rotation transactions, not here.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) GetAccessByToken(ctx context.Context, tokenStr string) (*domain.AccessToken, error) {
	var t domain.AccessToken
	err := r.db.WithContext(ctx).Where("token = ?", tokenStr).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) ListBySession(ctx context.Context, sessionID int64) ([]domain.AccessToken, []domain.RefreshToken, error) {
	var access []domain.AccessToken
	var refresh []domain.RefreshToken
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id").Find(&access).Error; err != nil {
		return nil, nil, err
	}
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id").Find(&refresh).Error; err != nil {
		return nil, nil, err
	}
	return access, refresh, nil
}
