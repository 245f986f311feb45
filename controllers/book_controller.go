package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"readify/models"
	"readify/services"
)

var allowedSorts = map[string]bool{
	models.SortNewest:     true,
	models.SortPriceAsc:   true,
	models.SortPriceDesc:  true,
	models.SortTitle:      true,
	models.SortBestseller: true,
}

type BookController struct {
	books services.BookService
}

func NewBookController(books services.BookService) *BookController {
	return &BookController{books: books}
}

// parseBookFilter reads the listing query string. It writes a 400 and returns
// false on malformed input.
func parseBookFilter(c *gin.Context) (models.BookFilter, bool) {
	page, limit := parsePaginationParams(c)
	filter := models.BookFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		Author: strings.TrimSpace(c.Query("author")),
		Sort:   c.DefaultQuery("sort", models.SortNewest),
		Page:   page,
		Limit:  limit,
	}

	if !allowedSorts[filter.Sort] {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid sort parameter"})
		return filter, false
	}

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		if id, err := uuid.Parse(category); err == nil {
			filter.CategoryID = &id
		} else {
			filter.CategorySlug = category
		}
	}

	var ok bool
	if filter.MinPrice, ok = optionalFloat(c, "minPrice"); !ok {
		return filter, false
	}
	if filter.MaxPrice, ok = optionalFloat(c, "maxPrice"); !ok {
		return filter, false
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "minPrice cannot exceed maxPrice"})
		return filter, false
	}
	return filter, true
}

// ListBooks handles GET /book
func (bc *BookController) ListBooks(c *gin.Context) {
	filter, ok := parseBookFilter(c)
	if !ok {
		return
	}

	books, total, err := bc.books.ListPublic(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("books", books, filter.Page, filter.Limit, total))
}

// GetBook handles GET /book/:slug
func (bc *BookController) GetBook(c *gin.Context) {
	book, err := bc.books.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// AdminListBooks handles GET /admin/book. Hidden books are included unless status is given.
func (bc *BookController) AdminListBooks(c *gin.Context) {
	filter, ok := parseBookFilter(c)
	if !ok {
		return
	}
	switch status := models.BookStatus(c.Query("status")); status {
	case "", models.BookActive, models.BookHidden:
		filter.Status = status
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	books, total, err := bc.books.ListAdmin(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("books", books, filter.Page, filter.Limit, total))
}

// AdminGetBook handles GET /admin/book/:id
func (bc *BookController) AdminGetBook(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.books.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// CreateBook handles POST /admin/book
func (bc *BookController) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if !bindJSON(c, &req) {
		return
	}
	book, err := bc.books.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"book": book})
}

// UpdateBook handles PUT /admin/book/:id
func (bc *BookController) UpdateBook(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateBookRequest
	if !bindJSON(c, &req) {
		return
	}
	book, err := bc.books.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// DeleteBook handles DELETE /admin/book/:id
func (bc *BookController) DeleteBook(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := bc.books.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted"})
}
