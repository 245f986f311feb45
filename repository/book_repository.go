package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"readify/models"
)

// BookRepository is the data access for the catalog.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindBySlug(ctx context.Context, slug string) (*models.Book, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
	// SlugExists also sees soft-deleted rows, which still hold the unique index.
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, book *models.Book, categories *[]models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.BookFilter) ([]models.Book, int64, error)
}

type GormBookRepository struct {
	db *gorm.DB
}

func NewGormBookRepository(db *gorm.DB) BookRepository {
	return &GormBookRepository{db: db}
}

// Create inserts the book and its category links. Categories themselves are never upserted.
func (r *GormBookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Omit("Categories.*").Create(book).Error
}

func (r *GormBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Preload("Categories").First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *GormBookRepository) FindBySlug(ctx context.Context, slug string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Preload("Categories").Where("slug = ?", slug).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *GormBookRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	var books []models.Book
	if len(ids) == 0 {
		return books, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *GormBookRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Unscoped().Model(&models.Book{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update saves every column of book; when categories is non-nil the links are replaced.
func (r *GormBookRepository) Update(ctx context.Context, book *models.Book, categories *[]models.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(book).Omit("Categories", "CreatedAt", "SoldCount", "DeletedAt").Select("*").Updates(book)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if categories == nil {
			return nil
		}
		if err := tx.Model(book).Omit("Categories.*").Association("Categories").Replace(*categories); err != nil {
			return err
		}
		book.Categories = *categories
		return nil
	})
}

// Delete soft-deletes the book and drops it from every wishlist.
func (r *GormBookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Book{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("book_id = ?", id).Delete(&models.WishlistItem{}).Error
	})
}

var bookSortOrders = map[string]string{
	models.SortNewest:     "created_at DESC",
	models.SortPriceAsc:   "price ASC, created_at DESC",
	models.SortPriceDesc:  "price DESC, created_at DESC",
	models.SortTitle:      "title ASC",
	models.SortBestseller: "sold_count DESC, created_at DESC",
}

func (r *GormBookRepository) List(ctx context.Context, filter models.BookFilter) ([]models.Book, int64, error) {
	var books []models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("title ILIKE ? OR author ILIKE ? OR isbn = ?", like, like, q)
	}
	if filter.CategoryID != nil {
		query = query.Where("id IN (SELECT book_id FROM book_categories WHERE category_id = ?)", *filter.CategoryID)
	} else if filter.CategorySlug != "" {
		query = query.Where(
			"id IN (SELECT bc.book_id FROM book_categories bc JOIN categories c ON c.id = bc.category_id WHERE c.slug = ? AND c.deleted_at IS NULL)",
			filter.CategorySlug,
		)
	}
	if a := strings.TrimSpace(filter.Author); a != "" {
		query = query.Where("author ILIKE ?", "%"+a+"%")
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := bookSortOrders[filter.Sort]
	if !ok {
		order = bookSortOrders[models.SortNewest]
	}

	if err := query.
		Preload("Categories").
		Order(order).
		Offset(offset(filter.Page, filter.Limit)).
		Limit(filter.Limit).
		Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}
