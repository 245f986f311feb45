package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"readify/models"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	FindAll(ctx context.Context, query string, page, limit int) ([]models.Supplier, int64, error)
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormSupplierRepository struct {
	db *gorm.DB
}

func NewGormSupplierRepository(db *gorm.DB) SupplierRepository {
	return &GormSupplierRepository{db: db}
}

func (r *GormSupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *GormSupplierRepository) FindAll(ctx context.Context, query string, page, limit int) ([]models.Supplier, int64, error) {
	var suppliers []models.Supplier
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Supplier{})
	if s := strings.TrimSpace(query); s != "" {
		like := "%" + s + "%"
		q = q.Where("name ILIKE ? OR contact_name ILIKE ? OR email ILIKE ?", like, like, like)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("name ASC").Offset(offset(page, limit)).Limit(limit).Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}
	return suppliers, total, nil
}

func (r *GormSupplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	result := r.db.WithContext(ctx).
		Model(supplier).
		Omit("CreatedAt", "DeletedAt").
		Select("*").
		Updates(supplier)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Supplier{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
