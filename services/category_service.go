package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"readify/models"
	"readify/repository"
)

type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, req *models.CategoryRequest) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, req *models.CategoryRequest) (*models.Category, error)
	// Delete refuses while any live book is still filed under the category.
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	categories repository.CategoryRepository
	cache      *repository.BookCache
	logger     *zap.Logger
}

func NewCategoryService(categories repository.CategoryRepository, cache *repository.BookCache, logger *zap.Logger) CategoryService {
	return &categoryService{categories: categories, cache: cache, logger: logger}
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, internal(s.logger, "Failed to list categories", err)
	}
	return categories, nil
}

func (s *categoryService) Create(ctx context.Context, req *models.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	slug, err := uniqueSlug(ctx, Slugify(name), uuid.Nil, s.categories.SlugExists)
	if err != nil {
		return nil, internal(s.logger, "Failed to generate category slug", err)
	}

	category := &models.Category{Name: name, Slug: slug, Description: req.Description}
	if err := s.categories.Create(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("Category name already exists")
		}
		return nil, internal(s.logger, "Failed to create category", err)
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req *models.CategoryRequest) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Category")
		}
		return nil, internal(s.logger, "Failed to load category", err)
	}

	name := strings.TrimSpace(req.Name)
	if name != category.Name {
		slug, err := uniqueSlug(ctx, Slugify(name), category.ID, s.categories.SlugExists)
		if err != nil {
			return nil, internal(s.logger, "Failed to generate category slug", err)
		}
		category.Name = name
		category.Slug = slug
	}
	category.Description = req.Description

	if err := s.categories.Update(ctx, category); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("Category name already exists")
		}
		return nil, internal(s.logger, "Failed to update category", err)
	}
	// list pages embed categories; detail entries age out by TTL
	s.cache.Invalidate(ctx)
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	inUse, err := s.categories.HasBooks(ctx, id)
	if err != nil {
		return internal(s.logger, "Failed to check category usage", err)
	}
	if inUse {
		return conflict("Category still has books")
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Category")
		}
		return internal(s.logger, "Failed to delete category", err)
	}
	s.cache.Invalidate(ctx)
	return nil
}
