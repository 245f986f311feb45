package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"readify/models"
)

// AccountRepository is the data access for accounts and staff profiles.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.AccountFilter, page, limit int) ([]models.Account, int64, error)

	CreateStaff(ctx context.Context, account *models.Account, profile *models.StaffProfile) error
	FindStaffByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateStaff(ctx context.Context, account *models.Account, profile *models.StaffProfile) error
	DeleteStaff(ctx context.Context, id uuid.UUID) error
}

type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) AccountRepository {
	return &GormAccountRepository{db: db}
}

func (r *GormAccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail matches case-insensitively; emails are stored lowercase.
func (r *GormAccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Update writes the editable profile columns of account.
func (r *GormAccountRepository) Update(ctx context.Context, account *models.Account) error {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"full_name":  account.FullName,
			"phone":      account.Phone,
			"address":    account.Address,
			"avatar_url": account.AvatarURL,
			"role":       account.Role,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormAccountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

func (r *GormAccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AccountStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *GormAccountRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete soft-deletes the account and its staff profile.
func (r *GormAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Account{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("account_id = ?", id).Delete(&models.StaffProfile{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).
			Where("account_id = ? AND revoked = ?", id, false).
			Update("revoked", true).Error
	})
}

func (r *GormAccountRepository) List(ctx context.Context, filter models.AccountFilter, page, limit int) ([]models.Account, int64, error) {
	var accounts []models.Account
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Account{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ? OR phone LIKE ?", like, like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if len(filter.Roles) > 0 {
		query = query.Where("role IN ?", filter.Roles)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Staff").
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// CreateStaff inserts the account and its profile in one transaction.
func (r *GormAccountRepository) CreateStaff(ctx context.Context, account *models.Account, profile *models.StaffProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Staff").Create(account).Error; err != nil {
			return err
		}
		profile.AccountID = account.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		account.Staff = profile
		return nil
	})
}

func (r *GormAccountRepository) FindStaffByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Preload("Staff").
		Where("role IN ?", []models.Role{models.RoleStaff, models.RoleAdmin}).
		First(&account, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateStaff writes account columns and upserts the profile.
func (r *GormAccountRepository) UpdateStaff(ctx context.Context, account *models.Account, profile *models.StaffProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := NewGormAccountRepository(tx).Update(ctx, account); err != nil {
			return err
		}
		profile.AccountID = account.ID
		if profile.ID == uuid.Nil {
			return tx.Create(profile).Error
		}
		return tx.Model(&models.StaffProfile{}).
			Where("id = ?", profile.ID).
			Updates(map[string]interface{}{
				"position": profile.Position,
				"hired_at": profile.HiredAt,
				"note":     profile.Note,
			}).Error
	})
}

func (r *GormAccountRepository) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	return r.Delete(ctx, id)
}
