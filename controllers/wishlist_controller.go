package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

type WishlistController struct {
	wishlist services.WishlistService
}

func NewWishlistController(wishlist services.WishlistService) *WishlistController {
	return &WishlistController{wishlist: wishlist}
}

// ListWishlist handles GET /wishlist
func (wc *WishlistController) ListWishlist(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	items, err := wc.wishlist.List(c.Request.Context(), p.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.WishlistEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// AddToWishlist handles POST /wishlist/:bookId. Adding a saved book again returns 200.
func (wc *WishlistController) AddToWishlist(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}

	created, err := wc.wishlist.Add(c.Request.Context(), p.AccountID, bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Added to wishlist", "book_id": bookID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Already in wishlist", "book_id": bookID})
}

// RemoveFromWishlist handles DELETE /wishlist/:bookId
func (wc *WishlistController) RemoveFromWishlist(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	if err := wc.wishlist.Remove(c.Request.Context(), p.AccountID, bookID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from wishlist"})
}

// MoveToCart handles POST /wishlist/:bookId/move-to-cart
func (wc *WishlistController) MoveToCart(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	cart, err := wc.wishlist.MoveToCart(c.Request.Context(), p.AccountID, bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	writeCart(c, http.StatusOK, cart)
}
