package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a cart. Title and UnitPrice are snapshots refreshed on every add.
type CartItem struct {
	BookID    uuid.UUID `json:"book_id"`
	Title     string    `json:"title"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart is stored as JSON in Redis under cart:user:<accountID>.
type Cart struct {
	AccountID uuid.UUID  `json:"account_id"`
	Items     []CartItem `json:"items"`
	Version   int64      `json:"version"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Find returns the index of bookID in the cart, or -1.
func (c *Cart) Find(bookID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].BookID == bookID {
			return i
		}
	}
	return -1
}

// Remove drops bookID and reports whether it was present.
func (c *Cart) Remove(bookID uuid.UUID) bool {
	i := c.Find(bookID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// CartLine is a cart item as returned to clients.
type CartLine struct {
	CartItem
	Slug      string  `json:"slug"`
	CoverURL  string  `json:"cover_url"`
	Available int     `json:"available"`
	LineTotal float64 `json:"line_total"`
}

// CartView is the GET /cart response body.
type CartView struct {
	Items     []CartLine  `json:"items"`
	ItemCount int         `json:"item_count"`
	Subtotal  float64     `json:"subtotal"`
	Version   int64       `json:"version"`
	Removed   []uuid.UUID `json:"removed,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AddCartItemRequest adds a book to the cart.
type AddCartItemRequest struct {
	BookID   uuid.UUID `json:"book_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1,max=99"`
	Version  *int64    `json:"version"`
}

// UpdateCartItemRequest sets a line quantity. Zero removes the line.
type UpdateCartItemRequest struct {
	Quantity int    `json:"quantity" binding:"gte=0,max=99"`
	Version  *int64 `json:"version"`
}

// CheckoutRequest is the optional checkout body.
type CheckoutRequest struct {
	PromotionCode string `json:"promotion_code" binding:"omitempty,max=64"`
}
