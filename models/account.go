package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is an account's authorization role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// AccountStatus controls whether an account may sign in.
type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountBanned AccountStatus = "banned"
)

// Account is a customer, warehouse staff member or administrator.
type Account struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	FullName     string         `gorm:"type:varchar(120);not null" json:"full_name"`
	Phone        string         `gorm:"type:varchar(32)" json:"phone"`
	Address      string         `gorm:"type:text" json:"address"`
	AvatarURL    string         `json:"avatar_url"`
	Role         Role           `gorm:"type:varchar(20);not null;default:'customer';index" json:"role"`
	Status       AccountStatus  `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Staff        *StaffProfile  `gorm:"foreignKey:AccountID" json:"staff,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// StaffProfile holds employment details for staff and admin accounts.
type StaffProfile struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Position  string         `gorm:"type:varchar(80)" json:"position"`
	HiredAt   *time.Time     `json:"hired_at,omitempty"`
	Note      string         `gorm:"type:text" json:"note"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RefreshToken stores issued refresh tokens for rotation and revocation
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TokenID   string    `gorm:"uniqueIndex;not null"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Revoked   bool      `gorm:"default:false"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// RegisterRequest is the storefront sign-up payload.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"required,min=2,max=120"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest updates the caller's own profile.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,min=2,max=120"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

// ChangePasswordRequest changes the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// CreateAccountRequest is the admin payload for creating an account of any role.
type CreateAccountRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"required,min=2,max=120"`
	Phone    string `json:"phone" binding:"omitempty,max=32"`
	Address  string `json:"address" binding:"omitempty,max=500"`
	Role     Role   `json:"role" binding:"required,oneof=customer staff admin"`
}

// UpdateAccountRequest is the admin payload for editing an account.
type UpdateAccountRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=2,max=120"`
	Phone    *string `json:"phone" binding:"omitempty,max=32"`
	Address  *string `json:"address" binding:"omitempty,max=500"`
	Role     *Role   `json:"role" binding:"omitempty,oneof=customer staff admin"`
}

// UpdateAccountStatusRequest bans or reactivates an account.
type UpdateAccountStatusRequest struct {
	Status AccountStatus `json:"status" binding:"required,oneof=active banned"`
}

// AccountFilter narrows admin account listings.
type AccountFilter struct {
	Query  string
	Role   Role
	Status AccountStatus
	Roles  []Role
}

// CreateStaffRequest creates a staff account and its profile together.
type CreateStaffRequest struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=8,max=72"`
	FullName string     `json:"full_name" binding:"required,min=2,max=120"`
	Phone    string     `json:"phone" binding:"omitempty,max=32"`
	Role     Role       `json:"role" binding:"required,oneof=staff admin"`
	Position string     `json:"position" binding:"required,max=80"`
	HiredAt  *time.Time `json:"hired_at"`
	Note     string     `json:"note" binding:"omitempty,max=1000"`
}

// UpdateStaffRequest edits a staff member.
type UpdateStaffRequest struct {
	FullName *string    `json:"full_name" binding:"omitempty,min=2,max=120"`
	Phone    *string    `json:"phone" binding:"omitempty,max=32"`
	Role     *Role      `json:"role" binding:"omitempty,oneof=staff admin"`
	Position *string    `json:"position" binding:"omitempty,max=80"`
	HiredAt  *time.Time `json:"hired_at"`
	Note     *string    `json:"note" binding:"omitempty,max=1000"`
}
