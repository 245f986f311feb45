package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem marks a book saved by an account.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_account_book" json:"account_id"`
	BookID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_account_book;index" json:"book_id"`
	Book      *Book     `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// WishlistEntry is a wishlist item as returned to clients.
type WishlistEntry struct {
	BookID  uuid.UUID   `json:"book_id"`
	AddedAt time.Time   `json:"added_at"`
	Book    BookSummary `json:"book"`
}
