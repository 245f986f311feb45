package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

type MediaController struct {
	media services.MediaService
}

func NewMediaController(media services.MediaService) *MediaController {
	return &MediaController{media: media}
}

// Presign handles POST /media/presign
func (mc *MediaController) Presign(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req models.PresignRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := mc.media.Presign(c.Request.Context(), p.AccountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterMedia handles POST /media
func (mc *MediaController) RegisterMedia(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req models.RegisterMediaRequest
	if !bindJSON(c, &req) {
		return
	}
	media, err := mc.media.Register(c.Request.Context(), p.AccountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"media": media})
}

// GetMedia handles GET /media/:id
func (mc *MediaController) GetMedia(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	media, err := mc.media.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": media})
}

// DeleteMedia handles DELETE /media/:id
func (mc *MediaController) DeleteMedia(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := mc.media.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Media deleted"})
}
