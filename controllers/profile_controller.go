package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readify/models"
	"readify/services"
)

type ProfileController struct {
	profiles services.ProfileService
	auth     *AuthController
}

// NewProfileController shares the auth controller's cookie settings so a
// password change can hand back the new session.
func NewProfileController(profiles services.ProfileService, auth *AuthController) *ProfileController {
	return &ProfileController{profiles: profiles, auth: auth}
}

// GetProfile handles GET /accounts/me
func (pc *ProfileController) GetProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	account, err := pc.profiles.Get(c.Request.Context(), p.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateProfile handles PUT /accounts/me
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := pc.profiles.Update(c.Request.Context(), p.AccountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// ChangePassword handles PUT /accounts/me/password
func (pc *ProfileController) ChangePassword(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := pc.profiles.ChangePassword(c.Request.Context(), p.AccountID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	pc.auth.writeTokens(c, tokens)
	c.JSON(http.StatusOK, gin.H{"message": "Password updated", "expires_at": tokens.AccessExpiresAt})
}
