package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"readify/models"
)

// StockLogRepository stores receipts and the movement audit trail.
type StockLogRepository interface {
	CreateReceipt(ctx context.Context, receipt *models.StockReceipt, movements []models.StockMovement) error
	FindReceipts(ctx context.Context, supplierID *uuid.UUID, page, limit int) ([]models.StockReceipt, int64, error)
	RecordMovements(ctx context.Context, movements []models.StockMovement) error
	FindMovements(ctx context.Context, bookID uuid.UUID, page, limit int) ([]models.StockMovement, int64, error)
}

type GormStockLogRepository struct {
	db *gorm.DB
}

func NewGormStockLogRepository(db *gorm.DB) StockLogRepository {
	return &GormStockLogRepository{db: db}
}

// CreateReceipt inserts the receipt, its items and movements in one transaction.
func (r *GormStockLogRepository) CreateReceipt(ctx context.Context, receipt *models.StockReceipt, movements []models.StockMovement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Supplier").Create(receipt).Error; err != nil {
			return err
		}
		for i := range movements {
			movements[i].ReferenceID = &receipt.ID
		}
		if len(movements) == 0 {
			return nil
		}
		return tx.Create(&movements).Error
	})
}

func (r *GormStockLogRepository) FindReceipts(ctx context.Context, supplierID *uuid.UUID, page, limit int) ([]models.StockReceipt, int64, error) {
	var receipts []models.StockReceipt
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StockReceipt{})
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Preload("Items").
		Preload("Supplier").
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&receipts).Error; err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

func (r *GormStockLogRepository) RecordMovements(ctx context.Context, movements []models.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&movements).Error
}

func (r *GormStockLogRepository) FindMovements(ctx context.Context, bookID uuid.UUID, page, limit int) ([]models.StockMovement, int64, error) {
	var movements []models.StockMovement
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StockMovement{}).Where("book_id = ?", bookID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
