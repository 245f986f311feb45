package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"readify/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair holds the generated access and refresh tokens.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshTokenID   string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Claims is the validated content of a token.
type Claims struct {
	AccountID uuid.UUID
	Email     string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// TokenService is responsible for creating and validating JWTs.
type TokenService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secretKey:  []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GenerateTokenPair creates a new access and refresh token pair. The refresh token carries a jti.
func (s *TokenService) GenerateTokenPair(account *models.Account) (*TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.accessTTL)
	accessToken, err := s.sign(account, TokenTypeAccess, now, accessExp, "")
	if err != nil {
		return nil, err
	}

	tokenID := uuid.NewString()
	refreshExp := now.Add(s.refreshTTL)
	refreshToken, err := s.sign(account, TokenTypeRefresh, now, refreshExp, tokenID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshTokenID:   tokenID,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ValidateToken parses tokenStr and checks its signature, expiry and type.
func (s *TokenService) ValidateToken(tokenStr, expectedType string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if typ, _ := mc["typ"].(string); typ != expectedType {
		return nil, fmt.Errorf("invalid token type")
	}

	sub, _ := mc["sub"].(string)
	accountID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject")
	}

	claims := &Claims{AccountID: accountID}
	claims.Email, _ = mc["email"].(string)
	role, _ := mc["role"].(string)
	claims.Role = models.Role(role)
	claims.TokenID, _ = mc["jti"].(string)
	if exp, ok := mc["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if expectedType == TokenTypeRefresh && claims.TokenID == "" {
		return nil, fmt.Errorf("refresh token has no id")
	}
	return claims, nil
}

func (s *TokenService) sign(account *models.Account, tokenType string, issued, expires time.Time, tokenID string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   account.ID.String(),
		"email": account.Email,
		"role":  string(account.Role),
		"typ":   tokenType,
		"exp":   expires.Unix(),
		"iat":   issued.Unix(),
	}
	if tokenID != "" {
		claims["jti"] = tokenID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}
