package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier delivers stock to the warehouse.
type Supplier struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(160);uniqueIndex:idx_suppliers_live_name,where:deleted_at IS NULL;not null" json:"name"`
	ContactName string         `gorm:"type:varchar(120)" json:"contact_name"`
	Email       string         `gorm:"type:varchar(255)" json:"email"`
	Phone       string         `gorm:"type:varchar(32)" json:"phone"`
	Address     string         `gorm:"type:text" json:"address"`
	Active      bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type SupplierRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=160"`
	ContactName string `json:"contact_name" binding:"omitempty,max=120"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"omitempty,max=32"`
	Address     string `json:"address" binding:"omitempty,max=500"`
	Active      *bool  `json:"active"`
}

type UpdateSupplierRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=160"`
	ContactName *string `json:"contact_name" binding:"omitempty,max=120"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
	Address     *string `json:"address" binding:"omitempty,max=500"`
	Active      *bool   `json:"active"`
}
