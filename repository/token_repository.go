package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"readify/models"
)

// RefreshTokenRepository persists issued refresh tokens.
type RefreshTokenRepository interface {
	Save(ctx context.Context, token *models.RefreshToken) error
	// Consume revokes an unrevoked, unexpired token and reports whether it was live.
	Consume(ctx context.Context, tokenID string) (bool, error)
	RevokeAll(ctx context.Context, accountID uuid.UUID) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type GormRefreshTokenRepository struct {
	db *gorm.DB
}

func NewGormRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

func (r *GormRefreshTokenRepository) Save(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *GormRefreshTokenRepository) Consume(ctx context.Context, tokenID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token_id = ? AND revoked = ? AND expires_at > ?", tokenID, false, time.Now()).
		Update("revoked", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormRefreshTokenRepository) RevokeAll(ctx context.Context, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("account_id = ? AND revoked = ?", accountID, false).
		Update("revoked", true).Error
}

func (r *GormRefreshTokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
