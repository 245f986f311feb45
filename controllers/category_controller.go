package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

type CategoryController struct {
	categories services.CategoryService
}

func NewCategoryController(categories services.CategoryService) *CategoryController {
	return &CategoryController{categories: categories}
}

// ListCategories handles GET /category and GET /admin/category
func (cc *CategoryController) ListCategories(c *gin.Context) {
	categories, err := cc.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory handles POST /admin/category
func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := cc.categories.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory handles PUT /admin/category/:id
func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := cc.categories.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles DELETE /admin/category/:id
func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := cc.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
