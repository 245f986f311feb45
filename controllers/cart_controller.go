package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

const maxIdempotencyKeyLen = 128

type CartController struct {
	carts services.CartService
}

func NewCartController(carts services.CartService) *CartController {
	return &CartController{carts: carts}
}

func writeCart(c *gin.Context, status int, cart *models.CartView) {
	c.Header("ETag", strconv.Quote(strconv.FormatInt(cart.Version, 10)))
	c.JSON(status, gin.H{"cart": cart})
}

// expectedVersion prefers If-Match over the body's version field.
func expectedVersion(c *gin.Context, body *int64) (*int64, bool) {
	header, ok := versionHeader(c)
	if !ok {
		return nil, false
	}
	if header != nil {
		return header, true
	}
	return body, true
}

// GetCart handles GET /cart
func (cc *CartController) GetCart(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	cart, err := cc.carts.Get(c.Request.Context(), p.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	writeCart(c, http.StatusOK, cart)
}

// AddItem handles POST /cart/items
func (cc *CartController) AddItem(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req models.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Version, ok = expectedVersion(c, req.Version); !ok {
		return
	}

	cart, err := cc.carts.AddItem(c.Request.Context(), p.AccountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	writeCart(c, http.StatusOK, cart)
}

// UpdateItem handles PUT /cart/items/:bookId
func (cc *CartController) UpdateItem(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	var req models.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Version, ok = expectedVersion(c, req.Version); !ok {
		return
	}

	cart, err := cc.carts.UpdateItem(c.Request.Context(), p.AccountID, bookID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	writeCart(c, http.StatusOK, cart)
}

// RemoveItem handles DELETE /cart/items/:bookId
func (cc *CartController) RemoveItem(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	version, ok := versionHeader(c)
	if !ok {
		return
	}

	cart, err := cc.carts.RemoveItem(c.Request.Context(), p.AccountID, bookID, version)
	if err != nil {
		respondError(c, err)
		return
	}
	writeCart(c, http.StatusOK, cart)
}

// ClearCart handles DELETE /cart
func (cc *CartController) ClearCart(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	cart, err := cc.carts.Clear(c.Request.Context(), p.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	writeCart(c, http.StatusOK, cart)
}

// Checkout handles POST /cart/checkout. The body is optional. Repeating a request
// with the same Idempotency-Key returns the first order with 200 instead of 201.
func (cc *CartController) Checkout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(key) > maxIdempotencyKeyLen {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key is too long"})
		return
	}

	var req models.CheckoutRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	order, replayed, err := cc.carts.Checkout(c.Request.Context(), p.AccountID, key, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, gin.H{"order": order})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}
