package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "readify/common/errors"
	"readify/middleware"
	"readify/models"
	"readify/services"
)

// CookieSettings controls the auth cookies written on login and refresh.
type CookieSettings struct {
	Domain string
	Secure bool
}

type AuthController struct {
	auth    services.AuthService
	cookies CookieSettings
}

func NewAuthController(auth services.AuthService, cookies CookieSettings) *AuthController {
	return &AuthController{auth: auth, cookies: cookies}
}

func (ac *AuthController) setCookie(c *gin.Context, name, value string, expires time.Time) {
	maxAge := -1
	if value != "" {
		maxAge = int(time.Until(expires).Seconds())
	}
	if ac.cookies.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(name, value, maxAge, "/", ac.cookies.Domain, ac.cookies.Secure, true)
}

func (ac *AuthController) writeTokens(c *gin.Context, tokens *services.TokenPair) {
	ac.setCookie(c, middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt)
	ac.setCookie(c, middleware.RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt)
}

func (ac *AuthController) clearTokens(c *gin.Context) {
	ac.setCookie(c, middleware.AccessTokenCookie, "", time.Time{})
	ac.setCookie(c, middleware.RefreshTokenCookie, "", time.Time{})
}

func sessionBody(account *models.Account, tokens *services.TokenPair) gin.H {
	return gin.H{
		"account":    account,
		"expires_at": tokens.AccessExpiresAt,
	}
}

// Register handles POST /auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	account, tokens, err := ac.auth.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	ac.writeTokens(c, tokens)
	c.JSON(http.StatusCreated, sessionBody(account, tokens))
}

// Login handles POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	account, tokens, err := ac.auth.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	ac.writeTokens(c, tokens)
	c.JSON(http.StatusOK, sessionBody(account, tokens))
}

// Refresh handles POST /auth/refresh. The refresh token comes from its cookie,
// or from a JSON body for non-browser clients.
func (ac *AuthController) Refresh(c *gin.Context) {
	token, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || token == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&body)
		token = body.RefreshToken
	}
	if token == "" {
		respondError(c, apperrors.ErrInvalidToken)
		return
	}

	account, tokens, err := ac.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		ac.clearTokens(c)
		respondError(c, err)
		return
	}

	ac.writeTokens(c, tokens)
	c.JSON(http.StatusOK, sessionBody(account, tokens))
}

// Logout handles POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := ac.auth.Logout(c.Request.Context(), p.AccountID); err != nil {
		respondError(c, err)
		return
	}

	ac.clearTokens(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
