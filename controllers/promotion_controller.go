package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

type PromotionController struct {
	promotions services.PromotionService
}

func NewPromotionController(promotions services.PromotionService) *PromotionController {
	return &PromotionController{promotions: promotions}
}

// ValidatePromotion handles POST /promotion/validate. An unusable code is still a
// 200 with valid=false and the reason.
func (pc *PromotionController) ValidatePromotion(c *gin.Context) {
	var req models.ValidatePromotionRequest
	if !bindJSON(c, &req) {
		return
	}
	quote, err := pc.promotions.Quote(c.Request.Context(), req.Code, req.Subtotal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ListPromotions handles GET /admin/promotion
func (pc *PromotionController) ListPromotions(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	activeOnly, _ := strconv.ParseBool(c.Query("active"))

	promotions, total, err := pc.promotions.List(c.Request.Context(), activeOnly, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("promotions", promotions, page, limit, total))
}

// GetPromotion handles GET /admin/promotion/:id
func (pc *PromotionController) GetPromotion(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	promotion, err := pc.promotions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotion": promotion})
}

// CreatePromotion handles POST /admin/promotion
func (pc *PromotionController) CreatePromotion(c *gin.Context) {
	var req models.CreatePromotionRequest
	if !bindJSON(c, &req) {
		return
	}
	promotion, err := pc.promotions.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"promotion": promotion})
}

// UpdatePromotion handles PUT /admin/promotion/:id
func (pc *PromotionController) UpdatePromotion(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdatePromotionRequest
	if !bindJSON(c, &req) {
		return
	}
	promotion, err := pc.promotions.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotion": promotion})
}

// DeletePromotion handles DELETE /admin/promotion/:id
func (pc *PromotionController) DeletePromotion(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := pc.promotions.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Promotion deleted"})
}
