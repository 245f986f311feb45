package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"readify/models"
	"readify/services"
)

type StockController struct {
	stock    services.StockService
	receipts services.ReceiptService
}

func NewStockController(stock services.StockService, receipts services.ReceiptService) *StockController {
	return &StockController{stock: stock, receipts: receipts}
}

// ListStock handles GET /stock. Pages follow next_token rather than page numbers.
func (sc *StockController) ListStock(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	_, limit = services.NormalizePage(1, limit)

	page, err := sc.stock.List(c.Request.Context(), limit, c.Query("next_token"))
	if err != nil {
		respondError(c, err)
		return
	}
	if page.Items == nil {
		page.Items = []models.Stock{}
	}
	c.JSON(http.StatusOK, page)
}

// LowStock handles GET /stock/low
func (sc *StockController) LowStock(c *gin.Context) {
	items, err := sc.stock.Low(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.Stock{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetStock handles GET /stock/:bookId
func (sc *StockController) GetStock(c *gin.Context) {
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	stock, err := sc.stock.Get(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// AdjustStock handles PUT /stock/:bookId
func (sc *StockController) AdjustStock(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	var req models.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	stock, err := sc.stock.Adjust(c.Request.Context(), p.AccountID, bookID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

// ListMovements handles GET /stock/:bookId/movements
func (sc *StockController) ListMovements(c *gin.Context) {
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	page, limit := parsePaginationParams(c)

	movements, total, err := sc.stock.Movements(c.Request.Context(), bookID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("movements", movements, page, limit, total))
}

// CreateReceipt handles POST /stock/receipts
func (sc *StockController) CreateReceipt(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req models.CreateReceiptRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := sc.receipts.Receive(c.Request.Context(), p.AccountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"receipt": receipt})
}

// ListReceipts handles GET /stock/receipts
func (sc *StockController) ListReceipts(c *gin.Context) {
	page, limit := parsePaginationParams(c)

	var supplierID *uuid.UUID
	if raw := c.Query("supplier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier_id"})
			return
		}
		supplierID = &id
	}

	receipts, total, err := sc.receipts.List(c.Request.Context(), supplierID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("receipts", receipts, page, limit, total))
}
