package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"readify/models"
)

// OrderRepository persists checkout records.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, accountID uuid.UUID, key string) (*models.Order, error)
	// MarkPaid moves a pending order to paid and adds its quantities to book sold counts.
	MarkPaid(ctx context.Context, order *models.Order) (bool, error)
	// MarkCancelled moves a pending order to cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error)
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIdempotencyKey(ctx context.Context, accountID uuid.UUID, key string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("account_id = ? AND idempotency_key = ?", accountID, key).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) MarkPaid(ctx context.Context, order *models.Order) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderPending).
			Update("status", models.OrderPaid)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		for _, item := range order.Items {
			if err := tx.Unscoped().Model(&models.Book{}).
				Where("id = ?", item.BookID).
				UpdateColumn("sold_count", gorm.Expr("sold_count + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		order.Status = models.OrderPaid
	}
	return applied, nil
}

func (r *GormOrderRepository) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderPending).
		Update("status", models.OrderCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
