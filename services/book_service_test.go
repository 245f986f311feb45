package services_test

import (
	"context"
	"math"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/repository"
	"readify/services"
)

type bookFixture struct {
	books      *memBooks
	categories *memCategories
	stock      *memStock
	cache      *repository.BookCache
	svc        services.BookService
}

func newBookFixture(t *testing.T, cats ...*models.Category) *bookFixture {
	_, client := newRedis(t)
	f := &bookFixture{
		books:      newMemBooks(),
		categories: newMemCategories(cats...),
		stock:      newMemStock(),
		cache:      repository.NewBookCache(client, time.Minute, testLogger()),
	}
	f.svc = services.NewBookService(f.books, f.categories, f.stock, f.cache, noMetrics, testLogger())
	return f
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"The Hobbit":                      "the-hobbit",
		"  Cien años de soledad!  ":       "cien-anos-de-soledad",
		"Đất rừng phương Nam":             "dat-rung-phuong-nam",
		"Straße & Co.":                    "strasse-co",
		"C++ -- The Good Parts (2nd ed.)": "c-the-good-parts-2nd-ed",
		"!!!":                             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, services.Slugify(in), in)
	}
}

func TestBook_CreateSlugCollision(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Dune", Author: "Herbert", Price: 10})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Dune", Author: "Someone", Price: 12})
	require.NoError(t, err)
	third, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "DUNE!", Author: "Else", Price: 12})
	require.NoError(t, err)

	assert.Equal(t, "dune", first.Slug)
	assert.Equal(t, "dune-2", second.Slug)
	assert.Equal(t, "dune-3", third.Slug)
	assert.Equal(t, models.BookActive, first.Status)
}

func TestBook_CreateValidatesCategoriesAndISBN(t *testing.T) {
	fiction := &models.Category{ID: uuid.New(), Name: "Fiction", Slug: "fiction"}
	f := newBookFixture(t, fiction)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "X", Author: "Y", Price: 1, CategoryIDs: []uuid.UUID{uuid.New()}})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	book, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "X", Author: "Y", Price: 1, ISBN: "9780000000001", CategoryIDs: []uuid.UUID{fiction.ID, fiction.ID}})
	require.NoError(t, err)
	assert.Len(t, book.Categories, 1)

	_, err = f.svc.Create(ctx, &models.CreateBookRequest{Title: "Z", Author: "Y", Price: 1, ISBN: "9780000000001"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestBook_UpdateRegeneratesSlugAndInvalidates(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	book, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Draft Title", Author: "A", Price: 5})
	require.NoError(t, err)
	f.stock.set(book.ID, 4)

	detail, err := f.svc.GetBySlug(ctx, "draft-title")
	require.NoError(t, err)
	assert.Equal(t, 4, detail.Available)
	assert.True(t, detail.InStock)

	title := "Final Title"
	updated, err := f.svc.Update(ctx, book.ID, &models.UpdateBookRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "final-title", updated.Slug)

	_, err = f.svc.GetBySlug(ctx, "draft-title")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	_, err = f.svc.GetBySlug(ctx, "final-title")
	assert.NoError(t, err)
}

func TestBook_HiddenAndDeletedAreNotPublic(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	hidden, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Hidden", Author: "A", Price: 5, Status: models.BookHidden})
	require.NoError(t, err)
	visible, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Visible", Author: "A", Price: 5})
	require.NoError(t, err)

	_, err = f.svc.GetBySlug(ctx, hidden.Slug)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	books, total, err := f.svc.ListPublic(ctx, models.BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, visible.ID, books[0].ID)

	require.NoError(t, f.svc.Delete(ctx, visible.ID))
	books, _, err = f.svc.ListPublic(ctx, models.BookFilter{})
	require.NoError(t, err)
	assert.Empty(t, books)

	all, _, err := f.svc.ListAdmin(ctx, models.BookFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBook_DetailMissesCollapse(t *testing.T) {
	f := newBookFixture(t)
	book := newBook("Popular", 10)
	f.books.byID[book.ID] = book

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.GetBySlug(context.Background(), book.Slug)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, f.books.finds, 8)
	_, err := f.svc.GetBySlug(context.Background(), book.Slug)
	require.NoError(t, err)
	assert.Less(t, f.books.finds, 8)
}

func TestNormalizePage(t *testing.T) {
	page, limit := services.NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
	_, limit = services.NormalizePage(3, 500)
	assert.Equal(t, 100, limit)
	page, _ = services.NormalizePage(math.MaxInt, 100)
	assert.Equal(t, 10000, page)
}

func TestBook_DetailLoadSurvivesFirstCallerLeaving(t *testing.T) {
	f := newBookFixture(t)
	book := newBook("Shared", 10)
	f.books.byID[book.ID] = book
	f.books.findDelay = 200 * time.Millisecond

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.svc.GetBySlug(firstCtx, book.Slug)
		firstErr <- err
	}()
	require.Eventually(t, func() bool {
		f.books.mu.Lock()
		defer f.books.mu.Unlock()
		return f.books.finds == 1
	}, time.Second, 5*time.Millisecond)

	secondDone := make(chan error, 1)
	go func() {
		_, err := f.svc.GetBySlug(context.Background(), book.Slug)
		secondDone <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancelFirst()

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.NoError(t, <-secondDone)
	assert.Equal(t, 1, f.books.finds)
}

func TestBook_CreateMovesPastSlugTakenConcurrently(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	f.books.racer = &models.Book{ID: uuid.New(), Title: "The Hobbit", Slug: "the-hobbit", Status: models.BookActive}

	book, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "The Hobbit", Author: "Tolkien", Price: 9, ISBN: "9780547928227"})
	require.NoError(t, err)
	assert.Equal(t, "the-hobbit-2", book.Slug)
	assert.Len(t, f.books.byID, 2)
}

func TestBook_UpdateMovesPastSlugTakenConcurrently(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	book, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Draft", Author: "A", Price: 5})
	require.NoError(t, err)

	f.books.racer = &models.Book{ID: uuid.New(), Title: "Emma", Slug: "emma", Status: models.BookActive}
	title := "Emma"
	updated, err := f.svc.Update(ctx, book.ID, &models.UpdateBookRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "emma-2", updated.Slug)
}

func TestBook_DuplicateISBNIsReportedAsISBN(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Emma", Author: "Austen", Price: 8, ISBN: "9780141439587"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, &models.CreateBookRequest{Title: "Emma", Author: "Austen", Price: 8, ISBN: "9780141439587"})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Code)
	assert.Equal(t, "A book with this ISBN already exists", appErr.Message)
}

func TestBook_DeletedBookISBNCanBeReused(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()
	old, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Emma", Author: "Austen", Price: 8, ISBN: "9780141439587"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, old.ID))

	again, err := f.svc.Create(ctx, &models.CreateBookRequest{Title: "Emma", Author: "Austen", Price: 8, ISBN: "9780141439587"})
	require.NoError(t, err)
	assert.Equal(t, "emma-2", again.Slug)
}

func TestCategory_DeleteRefusedWhileInUse(t *testing.T) {
	f := newBookFixture(t)
	svc := services.NewCategoryService(f.categories, f.cache, testLogger())
	ctx := context.Background()

	cat, err := svc.Create(ctx, &models.CategoryRequest{Name: "Sci-Fi & Fantasy"})
	require.NoError(t, err)
	assert.Equal(t, "sci-fi-fantasy", cat.Slug)

	_, err = svc.Create(ctx, &models.CategoryRequest{Name: "Sci-Fi & Fantasy"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	f.categories.inUse[cat.ID] = true
	assert.Equal(t, http.StatusConflict, statusOf(t, svc.Delete(ctx, cat.ID)))

	f.categories.inUse[cat.ID] = false
	assert.NoError(t, svc.Delete(ctx, cat.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(t, svc.Delete(ctx, cat.ID)))
}
