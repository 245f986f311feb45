package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookStatus controls storefront visibility.
type BookStatus string

const (
	BookActive BookStatus = "active"
	BookHidden BookStatus = "hidden"
)

// Book is a catalog entry. Stock levels live in the stock table, not here.
type Book struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string         `gorm:"type:varchar(255);not null;index" json:"title"`
	Slug          string         `gorm:"type:varchar(280);uniqueIndex;not null" json:"slug"`
	Author        string         `gorm:"type:varchar(255);not null;index" json:"author"`
	Publisher     string         `gorm:"type:varchar(255)" json:"publisher"`
	ISBN          string         `gorm:"type:varchar(20);uniqueIndex:idx_books_live_isbn,where:isbn <> '' AND deleted_at IS NULL" json:"isbn"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"not null" json:"price"`
	OriginalPrice float64        `gorm:"not null;default:0" json:"original_price"`
	CoverURL      string         `json:"cover_url"`
	PublishedYear int            `json:"published_year"`
	Pages         int            `json:"pages"`
	Language      string         `gorm:"type:varchar(32)" json:"language"`
	Status        BookStatus     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	SoldCount     int            `gorm:"not null;default:0" json:"sold_count"`
	Categories    []Category     `gorm:"many2many:book_categories;" json:"categories"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Purchasable reports whether the book may be added to a cart.
func (b *Book) Purchasable() bool {
	return b != nil && b.Status == BookActive && !b.DeletedAt.Valid
}

// BookDetail is the storefront view of a book with live availability.
type BookDetail struct {
	Book
	Available int  `json:"available"`
	InStock   bool `json:"in_stock"`
}

// BookSummary is the compact shape embedded in carts and wishlists.
type BookSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	Author   string    `json:"author"`
	Price    float64   `json:"price"`
	CoverURL string    `json:"cover_url"`
	InStock  bool      `json:"in_stock"`
}

// Summary converts b to a BookSummary.
func (b *Book) Summary(inStock bool) BookSummary {
	return BookSummary{
		ID:       b.ID,
		Title:    b.Title,
		Slug:     b.Slug,
		Author:   b.Author,
		Price:    b.Price,
		CoverURL: b.CoverURL,
		InStock:  inStock,
	}
}

// Book list sort keys.
const (
	SortNewest     = "newest"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortTitle      = "title"
	SortBestseller = "bestseller"
)

// BookFilter narrows book listings.
type BookFilter struct {
	Query        string
	CategoryID   *uuid.UUID
	CategorySlug string
	Author       string
	MinPrice     *float64
	MaxPrice     *float64
	Sort         string
	// Status empty means any status (admin listings).
	Status BookStatus
	Page   int
	Limit  int
}

// CreateBookRequest is the admin payload for a new book.
type CreateBookRequest struct {
	Title         string      `json:"title" binding:"required,min=1,max=255"`
	Author        string      `json:"author" binding:"required,max=255"`
	Publisher     string      `json:"publisher" binding:"omitempty,max=255"`
	ISBN          string      `json:"isbn" binding:"omitempty,max=20"`
	Description   string      `json:"description" binding:"omitempty,max=10000"`
	Price         float64     `json:"price" binding:"required,gt=0"`
	OriginalPrice float64     `json:"original_price" binding:"omitempty,gte=0"`
	CoverURL      string      `json:"cover_url" binding:"omitempty,url"`
	PublishedYear int         `json:"published_year" binding:"omitempty,gte=0,lte=3000"`
	Pages         int         `json:"pages" binding:"omitempty,gte=0"`
	Language      string      `json:"language" binding:"omitempty,max=32"`
	Status        BookStatus  `json:"status" binding:"omitempty,oneof=active hidden"`
	CategoryIDs   []uuid.UUID `json:"category_ids"`
}

// UpdateBookRequest is a partial update; nil fields are left unchanged.
type UpdateBookRequest struct {
	Title         *string      `json:"title" binding:"omitempty,min=1,max=255"`
	Author        *string      `json:"author" binding:"omitempty,max=255"`
	Publisher     *string      `json:"publisher" binding:"omitempty,max=255"`
	ISBN          *string      `json:"isbn" binding:"omitempty,max=20"`
	Description   *string      `json:"description" binding:"omitempty,max=10000"`
	Price         *float64     `json:"price" binding:"omitempty,gt=0"`
	OriginalPrice *float64     `json:"original_price" binding:"omitempty,gte=0"`
	CoverURL      *string      `json:"cover_url" binding:"omitempty,url"`
	PublishedYear *int         `json:"published_year" binding:"omitempty,gte=0,lte=3000"`
	Pages         *int         `json:"pages" binding:"omitempty,gte=0"`
	Language      *string      `json:"language" binding:"omitempty,max=32"`
	Status        *BookStatus  `json:"status" binding:"omitempty,oneof=active hidden"`
	CategoryIDs   *[]uuid.UUID `json:"category_ids"`
}
