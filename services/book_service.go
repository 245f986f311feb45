package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/repository"
	aws_pkg "readify/pkg/aws"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxPage          = 10000

	sharedLoadTimeout = 10 * time.Second
	slugRetries       = 3
)

// NormalizePage clamps page and limit to the listing defaults.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

type BookService interface {
	// ListPublic returns active books only; pages are cached.
	ListPublic(ctx context.Context, filter models.BookFilter) ([]models.Book, int64, error)
	GetBySlug(ctx context.Context, slug string) (*models.BookDetail, error)

	ListAdmin(ctx context.Context, filter models.BookFilter) ([]models.Book, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.BookDetail, error)
	Create(ctx context.Context, req *models.CreateBookRequest) (*models.Book, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateBookRequest) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type bookService struct {
	books      repository.BookRepository
	categories repository.CategoryRepository
	stock      repository.StockRepository
	cache      *repository.BookCache
	metrics    aws_pkg.Recorder
	group      singleflight.Group
	logger     *zap.Logger
}

func NewBookService(
	books repository.BookRepository,
	categories repository.CategoryRepository,
	stock repository.StockRepository,
	cache *repository.BookCache,
	metrics aws_pkg.Recorder,
	logger *zap.Logger,
) BookService {
	return &bookService{
		books:      books,
		categories: categories,
		stock:      stock,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *bookService) cacheHit(ctx context.Context, kind string, hit bool) {
	metric := aws_pkg.MetricCacheMisses
	if hit {
		metric = aws_pkg.MetricCacheHits
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Cache": kind})
}

func (s *bookService) ListPublic(ctx context.Context, filter models.BookFilter) ([]models.Book, int64, error) {
	filter.Status = models.BookActive
	filter.Page, filter.Limit = NormalizePage(filter.Page, filter.Limit)

	if cached, ok := s.cache.GetList(ctx, filter); ok {
		s.cacheHit(ctx, "book_list", true)
		return cached.Books, cached.Total, nil
	}
	s.cacheHit(ctx, "book_list", false)

	books, total, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, 0, internal(s.logger, "Failed to list books", err)
	}
	s.cache.SetList(ctx, filter, &repository.CachedBookList{Books: books, Total: total})
	return books, total, nil
}

func (s *bookService) ListAdmin(ctx context.Context, filter models.BookFilter) ([]models.Book, int64, error) {
	filter.Page, filter.Limit = NormalizePage(filter.Page, filter.Limit)
	books, total, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, 0, internal(s.logger, "Failed to list books", err)
	}
	return books, total, nil
}

// GetBySlug serves the storefront detail page. Concurrent misses for one slug share
// a single database read; availability is always read live.
func (s *bookService) GetBySlug(ctx context.Context, slug string) (*models.BookDetail, error) {
	book, hit := s.cache.GetDetail(ctx, slug)
	s.cacheHit(ctx, "book_detail", hit)

	if !hit {
		// the shared load outlives any single caller; each caller still honors its own ctx
		loads := s.group.DoChan(slug, func() (interface{}, error) {
			loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
			defer cancel()
			b, err := s.books.FindBySlug(loadCtx, slug)
			if err != nil {
				return nil, err
			}
			s.cache.SetDetail(loadCtx, b)
			return b, nil
		})
		var res singleflight.Result
		select {
		case res = <-loads:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if res.Err != nil {
			if repository.IsNotFound(res.Err) {
				return nil, notFound("Book")
			}
			return nil, internal(s.logger, "Failed to load book", res.Err, zap.String("slug", slug))
		}
		book = res.Val.(*models.Book)
	}

	if book.Status != models.BookActive {
		return nil, notFound("Book")
	}
	return s.withStock(ctx, book), nil
}

func (s *bookService) GetByID(ctx context.Context, id uuid.UUID) (*models.BookDetail, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Book")
		}
		return nil, internal(s.logger, "Failed to load book", err)
	}
	return s.withStock(ctx, book), nil
}

// withStock treats an unreadable or missing stock record as out of stock.
func (s *bookService) withStock(ctx context.Context, book *models.Book) *models.BookDetail {
	detail := &models.BookDetail{Book: *book}
	stock, err := s.stock.Get(ctx, book.ID.String())
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Warn("Failed to read stock", zap.String("book_id", book.ID.String()), zap.Error(err))
		}
		return detail
	}
	detail.Available = stock.Available
	detail.InStock = stock.Available > 0
	return detail
}

func (s *bookService) loadCategories(ctx context.Context, ids []uuid.UUID) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	categories, err := s.categories.FindByIDs(ctx, unique)
	if err != nil {
		return nil, internal(s.logger, "Failed to load categories", err)
	}
	if len(categories) != len(unique) {
		return nil, validationField("category_ids", "One or more categories do not exist")
	}
	return categories, nil
}

func (s *bookService) Create(ctx context.Context, req *models.CreateBookRequest) (*models.Book, error) {
	categories, err := s.loadCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	slug, err := uniqueSlug(ctx, Slugify(title), uuid.Nil, s.books.SlugExists)
	if err != nil {
		return nil, internal(s.logger, "Failed to generate book slug", err)
	}

	status := req.Status
	if status == "" {
		status = models.BookActive
	}
	book := &models.Book{
		Title:         title,
		Slug:          slug,
		Author:        strings.TrimSpace(req.Author),
		Publisher:     strings.TrimSpace(req.Publisher),
		ISBN:          strings.TrimSpace(req.ISBN),
		Description:   req.Description,
		Price:         round2(req.Price),
		OriginalPrice: round2(req.OriginalPrice),
		CoverURL:      req.CoverURL,
		PublishedYear: req.PublishedYear,
		Pages:         req.Pages,
		Language:      req.Language,
		Status:        status,
		Categories:    categories,
	}
	err = s.saveWithSlug(ctx, book, Slugify(title), func() error {
		return s.books.Create(ctx, book)
	})
	if err != nil {
		if appErr, ok := err.(*apperrors.Error); ok {
			return nil, appErr
		}
		return nil, internal(s.logger, "Failed to create book", err)
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("Book created", zap.String("book_id", book.ID.String()), zap.String("slug", book.Slug))
	return book, nil
}

func (s *bookService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateBookRequest) (*models.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Book")
		}
		return nil, internal(s.logger, "Failed to load book", err)
	}
	oldSlug := book.Slug

	var categories *[]models.Category
	if req.CategoryIDs != nil {
		loaded, err := s.loadCategories(ctx, *req.CategoryIDs)
		if err != nil {
			return nil, err
		}
		categories = &loaded
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != book.Title {
			slug, err := uniqueSlug(ctx, Slugify(title), book.ID, s.books.SlugExists)
			if err != nil {
				return nil, internal(s.logger, "Failed to generate book slug", err)
			}
			book.Title = title
			book.Slug = slug
		}
	}
	if req.Author != nil {
		book.Author = strings.TrimSpace(*req.Author)
	}
	if req.Publisher != nil {
		book.Publisher = strings.TrimSpace(*req.Publisher)
	}
	if req.ISBN != nil {
		book.ISBN = strings.TrimSpace(*req.ISBN)
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.Price != nil {
		book.Price = round2(*req.Price)
	}
	if req.OriginalPrice != nil {
		book.OriginalPrice = round2(*req.OriginalPrice)
	}
	if req.CoverURL != nil {
		book.CoverURL = *req.CoverURL
	}
	if req.PublishedYear != nil {
		book.PublishedYear = *req.PublishedYear
	}
	if req.Pages != nil {
		book.Pages = *req.Pages
	}
	if req.Language != nil {
		book.Language = *req.Language
	}
	if req.Status != nil {
		book.Status = *req.Status
	}

	err = s.saveWithSlug(ctx, book, Slugify(book.Title), func() error {
		return s.books.Update(ctx, book, categories)
	})
	if err != nil {
		if appErr, ok := err.(*apperrors.Error); ok {
			return nil, appErr
		}
		return nil, internal(s.logger, "Failed to update book", err)
	}
	if categories != nil {
		book.Categories = *categories
	}

	s.cache.Invalidate(ctx, oldSlug, book.Slug)
	return book, nil
}

// saveWithSlug runs write and, when a concurrent writer claimed book.Slug first,
// moves to the next free slug and writes again. Any other unique violation is the ISBN.
func (s *bookService) saveWithSlug(ctx context.Context, book *models.Book, base string, write func() error) error {
	for attempt := 0; ; attempt++ {
		err := write()
		if err == nil || !repository.IsUniqueViolation(err) {
			return err
		}
		taken, checkErr := s.books.SlugExists(ctx, book.Slug, book.ID)
		if checkErr != nil {
			return checkErr
		}
		if !taken {
			return conflict("A book with this ISBN already exists")
		}
		if attempt == slugRetries {
			return conflict("A book with this title was saved concurrently, please retry")
		}
		slug, slugErr := uniqueSlug(ctx, base, book.ID, s.books.SlugExists)
		if slugErr != nil {
			return slugErr
		}
		s.logger.Debug("Book slug taken concurrently", zap.String("slug", book.Slug), zap.String("next", slug))
		book.Slug = slug
	}
}

func (s *bookService) Delete(ctx context.Context, id uuid.UUID) error {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return notFound("Book")
		}
		return internal(s.logger, "Failed to load book", err)
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return internal(s.logger, "Failed to delete book", err)
	}
	s.cache.Invalidate(ctx, book.Slug)
	s.logger.Info("Book deleted", zap.String("book_id", id.String()))
	return nil
}
