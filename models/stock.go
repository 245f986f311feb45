package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock is the per-book stock record kept in DynamoDB.
type Stock struct {
	BookID    string    `json:"book_id" dynamodbav:"book_id"`
	Available int       `json:"available" dynamodbav:"available"`
	Reserved  int       `json:"reserved" dynamodbav:"reserved"`
	Threshold int       `json:"threshold" dynamodbav:"threshold"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"-"`
}

// Low reports whether the book has fallen to its low-stock threshold.
func (s *Stock) Low() bool {
	return s.Available <= s.Threshold
}

// StockPage is one page of a stock scan. NextToken is empty on the last page.
type StockPage struct {
	Items     []Stock `json:"items"`
	NextToken string  `json:"next_token,omitempty"`
}

// MovementReason explains a stock change.
type MovementReason string

const (
	MovementReceipt    MovementReason = "receipt"
	MovementAdjustment MovementReason = "adjustment"
	MovementReserve    MovementReason = "reserve"
	MovementRelease    MovementReason = "release"
	MovementConfirm    MovementReason = "confirm"
)

// StockMovement is an append-only audit record of a stock change.
type StockMovement struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BookID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"book_id"`
	Delta       int            `gorm:"not null" json:"delta"`
	Reason      MovementReason `gorm:"type:varchar(20);not null" json:"reason"`
	Note        string         `gorm:"type:text" json:"note,omitempty"`
	ReferenceID *uuid.UUID     `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	ActorID     *uuid.UUID     `gorm:"type:uuid" json:"actor_id,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

// StockReceipt records a delivery from a supplier.
type StockReceipt struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID uuid.UUID          `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier   *Supplier          `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	StaffID    uuid.UUID          `gorm:"type:uuid;not null" json:"staff_id"`
	Note       string             `gorm:"type:text" json:"note"`
	Items      []StockReceiptItem `gorm:"foreignKey:ReceiptID" json:"items"`
	TotalCost  float64            `gorm:"not null;default:0" json:"total_cost"`
	CreatedAt  time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

type StockReceiptItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReceiptID uuid.UUID `gorm:"type:uuid;not null;index" json:"receipt_id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null" json:"book_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitCost  float64   `gorm:"not null;default:0" json:"unit_cost"`
}

// AdjustStockRequest changes one book's stock. Exactly one of Delta or Available is set.
type AdjustStockRequest struct {
	Delta     *int   `json:"delta"`
	Available *int   `json:"available" binding:"omitempty,gte=0"`
	Threshold *int   `json:"threshold" binding:"omitempty,gte=0"`
	Reason    string `json:"reason" binding:"required,max=500"`
}

// ReceiptItemInput is one line of a receipt payload.
type ReceiptItemInput struct {
	BookID   uuid.UUID `json:"book_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
	UnitCost float64   `json:"unit_cost" binding:"gte=0"`
}

// CreateReceiptRequest receives stock from a supplier.
type CreateReceiptRequest struct {
	SupplierID uuid.UUID          `json:"supplier_id" binding:"required"`
	Note       string             `json:"note" binding:"omitempty,max=2000"`
	Items      []ReceiptItemInput `json:"items" binding:"required,min=1,dive"`
}

// ReserveLine is a book and quantity moved between available and reserved.
type ReserveLine struct {
	BookID   uuid.UUID `json:"book_id"`
	Quantity int       `json:"quantity"`
}
