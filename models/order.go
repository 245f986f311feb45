package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a checkout.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

// Final reports whether no further lifecycle event applies.
func (s OrderStatus) Final() bool {
	return s == OrderPaid || s == OrderCancelled
}

// Order is the record a checkout produces. Payment happens downstream.
type Order struct {
	ID             uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID      uuid.UUID   `gorm:"type:uuid;not null;index;uniqueIndex:idx_orders_account_idem,priority:1,where:idempotency_key <> ''" json:"account_id"`
	IdempotencyKey string      `gorm:"type:varchar(128);uniqueIndex:idx_orders_account_idem,priority:2,where:idempotency_key <> ''" json:"-"`
	Items          []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Subtotal       float64     `gorm:"not null" json:"subtotal"`
	Discount       float64     `gorm:"not null;default:0" json:"discount"`
	Total          float64     `gorm:"not null" json:"total"`
	PromotionCode  string      `gorm:"type:varchar(64)" json:"promotion_code,omitempty"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	BookID    uuid.UUID `gorm:"type:uuid;not null" json:"book_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
}

// Lines returns the order's items as reservation lines.
func (o *Order) Lines() []ReserveLine {
	lines := make([]ReserveLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, ReserveLine{BookID: it.BookID, Quantity: it.Quantity})
	}
	return lines
}
