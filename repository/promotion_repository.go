package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"readify/models"
)

// PromotionRepository defines the interface for promotion data access.
type PromotionRepository interface {
	Create(ctx context.Context, promotion *models.Promotion) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
	Update(ctx context.Context, promotion *models.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context, activeOnly bool, page, limit int) ([]models.Promotion, int64, error)
	// Redeem consumes one use if the promotion is live and under its limit.
	Redeem(ctx context.Context, code string, now time.Time) (bool, error)
	// Unredeem gives back a use taken by a checkout that later failed.
	Unredeem(ctx context.Context, code string) error
}

// GormPromotionRepository implements PromotionRepository using GORM.
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository.
func NewGormPromotionRepository(db *gorm.DB) PromotionRepository {
	return &GormPromotionRepository{db: db}
}

func (r *GormPromotionRepository) Create(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

func (r *GormPromotionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.WithContext(ctx).First(&promotion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promotion, nil
}

// FindByCode looks up a promotion by code regardless of state; callers check validity.
func (r *GormPromotionRepository) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&promotion).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *GormPromotionRepository) Update(ctx context.Context, promotion *models.Promotion) error {
	result := r.db.WithContext(ctx).
		Model(promotion).
		Omit("Code", "UsedCount", "CreatedAt", "DeletedAt").
		Select("*").
		Updates(promotion)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormPromotionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Promotion{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindAll retrieves paginated promotions.
func (r *GormPromotionRepository) FindAll(ctx context.Context, activeOnly bool, page, limit int) ([]models.Promotion, int64, error) {
	var promotions []models.Promotion
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Promotion{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Offset(offset(page, limit)).
		Limit(limit).
		Order("created_at DESC").
		Find(&promotions).Error; err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}

func (r *GormPromotionRepository) Redeem(ctx context.Context, code string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("code = ? AND active = ? AND starts_at <= ? AND ends_at > ?", strings.ToUpper(code), true, now, now).
		Where("usage_limit = 0 OR used_count < usage_limit").
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormPromotionRepository) Unredeem(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("code = ? AND used_count > 0", strings.ToUpper(code)).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).
		Error
}
