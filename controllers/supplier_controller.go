package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

type SupplierController struct {
	suppliers services.SupplierService
}

func NewSupplierController(suppliers services.SupplierService) *SupplierController {
	return &SupplierController{suppliers: suppliers}
}

// ListSuppliers handles GET /supplier
func (sc *SupplierController) ListSuppliers(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	suppliers, total, err := sc.suppliers.List(c.Request.Context(), strings.TrimSpace(c.Query("q")), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("suppliers", suppliers, page, limit, total))
}

// GetSupplier handles GET /supplier/:id
func (sc *SupplierController) GetSupplier(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	supplier, err := sc.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"supplier": supplier})
}

// CreateSupplier handles POST /supplier
func (sc *SupplierController) CreateSupplier(c *gin.Context) {
	var req models.SupplierRequest
	if !bindJSON(c, &req) {
		return
	}
	supplier, err := sc.suppliers.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"supplier": supplier})
}

// UpdateSupplier handles PUT /supplier/:id
func (sc *SupplierController) UpdateSupplier(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateSupplierRequest
	if !bindJSON(c, &req) {
		return
	}
	supplier, err := sc.suppliers.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"supplier": supplier})
}

// DeleteSupplier handles DELETE /supplier/:id
func (sc *SupplierController) DeleteSupplier(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := sc.suppliers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted"})
}
