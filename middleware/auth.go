package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/services"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	principalKey = "principal"
)

// SetPrincipal attaches the authenticated caller to the request.
func SetPrincipal(c *gin.Context, p *services.Principal) {
	c.Set(principalKey, p)
	c.Set("userID", p.AccountID.String())
	c.Set("role", string(p.Role))
}

// CurrentPrincipal returns the caller attached by RequireAuth.
func CurrentPrincipal(c *gin.Context) (*services.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*services.Principal)
	return p, ok && p != nil
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth accepts the access token from the accessToken cookie or a Bearer
// header. Banned accounts are rejected even with a valid token.
func RequireAuth(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			apperrors.Respond(c, apperrors.ErrUnauthorized)
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireRoles must run after RequireAuth.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			apperrors.Respond(c, apperrors.ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	}
}
