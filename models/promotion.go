package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromotionType selects how a promotion's value is applied.
type PromotionType string

const (
	PromotionPercentage PromotionType = "percentage"
	PromotionFixed      PromotionType = "fixed"
)

// Promotion is a discount code redeemable at checkout.
type Promotion struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string         `gorm:"type:varchar(64);uniqueIndex:idx_promotions_live_code,where:deleted_at IS NULL;not null" json:"code"`
	Name          string         `gorm:"type:varchar(120);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Type          PromotionType  `gorm:"type:varchar(20);not null" json:"type"`
	Value         float64        `gorm:"not null" json:"value"`
	MinOrderValue float64        `gorm:"not null;default:0" json:"min_order_value"`
	MaxDiscount   float64        `gorm:"not null;default:0" json:"max_discount"` // 0 = uncapped
	UsageLimit    int            `gorm:"not null;default:0" json:"usage_limit"`  // 0 = unlimited
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`
	StartsAt      time.Time      `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time      `gorm:"not null" json:"ends_at"`
	Active        bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// CreatePromotionRequest is the admin payload for a new promotion.
type CreatePromotionRequest struct {
	Code          string        `json:"code" binding:"required,min=3,max=64,alphanum"`
	Name          string        `json:"name" binding:"required,max=120"`
	Description   string        `json:"description" binding:"omitempty,max=2000"`
	Type          PromotionType `json:"type" binding:"required,oneof=percentage fixed"`
	Value         float64       `json:"value" binding:"required,gt=0"`
	MinOrderValue float64       `json:"min_order_value" binding:"gte=0"`
	MaxDiscount   float64       `json:"max_discount" binding:"gte=0"`
	UsageLimit    int           `json:"usage_limit" binding:"gte=0"`
	StartsAt      time.Time     `json:"starts_at" binding:"required"`
	EndsAt        time.Time     `json:"ends_at" binding:"required"`
	Active        *bool         `json:"active"`
}

// UpdatePromotionRequest is a partial promotion update. The code is immutable.
type UpdatePromotionRequest struct {
	Name          *string        `json:"name" binding:"omitempty,max=120"`
	Description   *string        `json:"description" binding:"omitempty,max=2000"`
	Type          *PromotionType `json:"type" binding:"omitempty,oneof=percentage fixed"`
	Value         *float64       `json:"value" binding:"omitempty,gt=0"`
	MinOrderValue *float64       `json:"min_order_value" binding:"omitempty,gte=0"`
	MaxDiscount   *float64       `json:"max_discount" binding:"omitempty,gte=0"`
	UsageLimit    *int           `json:"usage_limit" binding:"omitempty,gte=0"`
	StartsAt      *time.Time     `json:"starts_at"`
	EndsAt        *time.Time     `json:"ends_at"`
	Active        *bool          `json:"active"`
}

// ValidatePromotionRequest previews a code against a subtotal.
type ValidatePromotionRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"required,gt=0"`
}

// PromotionQuote is the outcome of validating a code.
type PromotionQuote struct {
	Valid    bool          `json:"valid"`
	Code     string        `json:"code"`
	Type     PromotionType `json:"type,omitempty"`
	Discount float64       `json:"discount"`
	Total    float64       `json:"total"`
	Message  string        `json:"message,omitempty"`
}
