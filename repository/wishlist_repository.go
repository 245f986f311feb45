package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"readify/models"
)

type WishlistRepository interface {
	// Add inserts the pair and reports whether a new row was created.
	Add(ctx context.Context, accountID, bookID uuid.UUID) (bool, error)
	Remove(ctx context.Context, accountID, bookID uuid.UUID) error
	List(ctx context.Context, accountID uuid.UUID) ([]models.WishlistItem, error)
	Exists(ctx context.Context, accountID, bookID uuid.UUID) (bool, error)
}

type GormWishlistRepository struct {
	db *gorm.DB
}

func NewGormWishlistRepository(db *gorm.DB) WishlistRepository {
	return &GormWishlistRepository{db: db}
}

func (r *GormWishlistRepository) Add(ctx context.Context, accountID, bookID uuid.UUID) (bool, error) {
	item := &models.WishlistItem{AccountID: accountID, BookID: bookID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormWishlistRepository) Remove(ctx context.Context, accountID, bookID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("account_id = ? AND book_id = ?", accountID, bookID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns newest first, skipping items whose book has been deleted.
func (r *GormWishlistRepository) List(ctx context.Context, accountID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		InnerJoins("Book").
		Where("wishlist_items.account_id = ?", accountID).
		Order("wishlist_items.created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormWishlistRepository) Exists(ctx context.Context, accountID, bookID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("account_id = ? AND book_id = ?", accountID, bookID).
		Count(&count).Error
	return count > 0, err
}
