// Package seed loads demo catalog data through the domain services, so seeded
// rows pass the same validation, slugging and stock bookkeeping as API writes.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/services"
)

type Admin struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Supplier struct {
	Name        string `yaml:"name"`
	ContactName string `yaml:"contact_name"`
	Email       string `yaml:"email"`
	Phone       string `yaml:"phone"`
	Address     string `yaml:"address"`
}

type Book struct {
	Title         string   `yaml:"title"`
	Author        string   `yaml:"author"`
	Publisher     string   `yaml:"publisher"`
	ISBN          string   `yaml:"isbn"`
	Description   string   `yaml:"description"`
	Price         float64  `yaml:"price"`
	OriginalPrice float64  `yaml:"original_price"`
	CoverURL      string   `yaml:"cover_url"`
	PublishedYear int      `yaml:"published_year"`
	Pages         int      `yaml:"pages"`
	Language      string   `yaml:"language"`
	Categories    []string `yaml:"categories"`
	Stock         int      `yaml:"stock"`
	Threshold     *int     `yaml:"threshold"`
}

type Promotion struct {
	Code          string               `yaml:"code"`
	Name          string               `yaml:"name"`
	Type          models.PromotionType `yaml:"type"`
	Value         float64              `yaml:"value"`
	MinOrderValue float64              `yaml:"min_order_value"`
	MaxDiscount   float64              `yaml:"max_discount"`
	UsageLimit    int                  `yaml:"usage_limit"`
	StartsAt      time.Time            `yaml:"starts_at"`
	EndsAt        time.Time            `yaml:"ends_at"`
}

// Data is the seed file layout.
type Data struct {
	Admin      *Admin      `yaml:"admin"`
	Categories []Category  `yaml:"categories"`
	Suppliers  []Supplier  `yaml:"suppliers"`
	Books      []Book      `yaml:"books"`
	Promotions []Promotion `yaml:"promotions"`
}

// Load reads and validates a seed file.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes seed YAML. Unknown keys are rejected so typos surface early.
func Parse(raw []byte) (*Data, error) {
	var data Data
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

func (d *Data) validate() error {
	known := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		known[strings.ToLower(c.Name)] = true
	}
	for i, b := range d.Books {
		if b.Title == "" || b.ISBN == "" {
			return fmt.Errorf("books[%d]: title and isbn are required", i)
		}
		if b.Stock < 0 {
			return fmt.Errorf("books[%d]: stock cannot be negative", i)
		}
		for _, name := range b.Categories {
			if !known[strings.ToLower(name)] {
				return fmt.Errorf("books[%d]: unknown category %q", i, name)
			}
		}
	}
	return nil
}

// Deps are the services the seeder writes through.
type Deps struct {
	Accounts   services.AccountService
	Categories services.CategoryService
	Books      services.BookService
	Stock      services.StockService
	Suppliers  services.SupplierService
	Promotions services.PromotionService
}

// Report counts what a run created and what already existed.
type Report struct {
	Created int
	Skipped int
}

type Seeder struct {
	deps   Deps
	logger *zap.Logger
}

func NewSeeder(deps Deps, logger *zap.Logger) *Seeder {
	return &Seeder{deps: deps, logger: logger}
}

// Run is safe to repeat: rows that already exist (409) are skipped.
func (s *Seeder) Run(ctx context.Context, data *Data) (*Report, error) {
	report := &Report{}
	actor := uuid.Nil

	if data.Admin != nil {
		account, err := s.deps.Accounts.Create(ctx, &models.CreateAccountRequest{
			Email:    data.Admin.Email,
			Password: data.Admin.Password,
			FullName: data.Admin.FullName,
			Role:     models.RoleAdmin,
		})
		if err := s.tally(report, "admin", data.Admin.Email, err); err != nil {
			return report, err
		}
		if account != nil {
			actor = account.ID
		}
	}

	for _, c := range data.Categories {
		_, err := s.deps.Categories.Create(ctx, &models.CategoryRequest{Name: c.Name, Description: c.Description})
		if err := s.tally(report, "category", c.Name, err); err != nil {
			return report, err
		}
	}

	categoryIDs, err := s.categoryIndex(ctx)
	if err != nil {
		return report, err
	}

	for _, sp := range data.Suppliers {
		_, err := s.deps.Suppliers.Create(ctx, &models.SupplierRequest{
			Name:        sp.Name,
			ContactName: sp.ContactName,
			Email:       sp.Email,
			Phone:       sp.Phone,
			Address:     sp.Address,
		})
		if err := s.tally(report, "supplier", sp.Name, err); err != nil {
			return report, err
		}
	}

	for _, b := range data.Books {
		if err := s.seedBook(ctx, report, actor, b, categoryIDs); err != nil {
			return report, err
		}
	}

	for _, p := range data.Promotions {
		_, err := s.deps.Promotions.Create(ctx, &models.CreatePromotionRequest{
			Code:          p.Code,
			Name:          p.Name,
			Type:          p.Type,
			Value:         p.Value,
			MinOrderValue: p.MinOrderValue,
			MaxDiscount:   p.MaxDiscount,
			UsageLimit:    p.UsageLimit,
			StartsAt:      p.StartsAt,
			EndsAt:        p.EndsAt,
		})
		if err := s.tally(report, "promotion", p.Code, err); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (s *Seeder) seedBook(ctx context.Context, report *Report, actor uuid.UUID, b Book, categoryIDs map[string]uuid.UUID) error {
	ids := make([]uuid.UUID, 0, len(b.Categories))
	for _, name := range b.Categories {
		ids = append(ids, categoryIDs[strings.ToLower(name)])
	}

	book, err := s.deps.Books.Create(ctx, &models.CreateBookRequest{
		Title:         b.Title,
		Author:        b.Author,
		Publisher:     b.Publisher,
		ISBN:          b.ISBN,
		Description:   b.Description,
		Price:         b.Price,
		OriginalPrice: b.OriginalPrice,
		CoverURL:      b.CoverURL,
		PublishedYear: b.PublishedYear,
		Pages:         b.Pages,
		Language:      b.Language,
		Status:        models.BookActive,
		CategoryIDs:   ids,
	})
	if err := s.tally(report, "book", b.Title, err); err != nil || book == nil {
		return err
	}

	available := b.Stock
	_, err = s.deps.Stock.Adjust(ctx, actor, book.ID, &models.AdjustStockRequest{
		Available: &available,
		Threshold: b.Threshold,
		Reason:    "initial stock",
	})
	if err != nil {
		return fmt.Errorf("seed stock for %q: %w", b.Title, err)
	}
	return nil
}

func (s *Seeder) categoryIndex(ctx context.Context) (map[string]uuid.UUID, error) {
	categories, err := s.deps.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	index := make(map[string]uuid.UUID, len(categories))
	for _, c := range categories {
		index[strings.ToLower(c.Name)] = c.ID
	}
	return index, nil
}

// tally counts err == nil as created and a conflict as skipped; anything else aborts the run.
func (s *Seeder) tally(report *Report, kind, name string, err error) error {
	switch {
	case err == nil:
		report.Created++
		s.logger.Info("Seeded", zap.String("kind", kind), zap.String("name", name))
		return nil
	case apperrors.From(err).Code == http.StatusConflict:
		report.Skipped++
		s.logger.Debug("Already present", zap.String("kind", kind), zap.String("name", name))
		return nil
	default:
		return fmt.Errorf("seed %s %q: %w", kind, name, err)
	}
}
