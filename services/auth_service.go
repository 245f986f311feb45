package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/repository"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	AccountID uuid.UUID
	Email     string
	Role      models.Role
}

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, *TokenPair, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.Account, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Account, *TokenPair, error)
	Logout(ctx context.Context, accountID uuid.UUID) error
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)
	IssueTokens(ctx context.Context, account *models.Account) (*TokenPair, error)
}

type authService struct {
	accounts  repository.AccountRepository
	tokens    repository.RefreshTokenRepository
	jwt       *TokenService
	passwords *PasswordValidator
	logger    *zap.Logger
}

func NewAuthService(
	accounts repository.AccountRepository,
	tokens repository.RefreshTokenRepository,
	jwt *TokenService,
	passwords *PasswordValidator,
	logger *zap.Logger,
) AuthService {
	return &authService{
		accounts:  accounts,
		tokens:    tokens,
		jwt:       jwt,
		passwords: passwords,
		logger:    logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account and signs it in.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, *TokenPair, error) {
	if err := s.passwords.Validate(req.Password); err != nil {
		return nil, nil, apperrors.Validation(map[string]string{"password": err.Error()})
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, internal(s.logger, "Failed to hash password", err)
	}

	account := &models.Account{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         models.RoleCustomer,
		Status:       models.AccountActive,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, nil, conflict("Email is already registered")
		}
		return nil, nil, internal(s.logger, "Failed to create account", err)
	}

	pair, err := s.IssueTokens(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Account registered", zap.String("account_id", account.ID.String()))
	return account, pair, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.Account, *TokenPair, error) {
	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, internal(s.logger, "Failed to look up account", err)
	}
	if !CheckPassword(account.PasswordHash, req.Password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if account.Status == models.AccountBanned {
		return nil, nil, apperrors.ErrAccountBanned
	}

	pair, err := s.IssueTokens(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// Refresh rotates a refresh token. Presenting an already-used token revokes every session of the account.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.Account, *TokenPair, error) {
	claims, err := s.jwt.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidToken
	}

	live, err := s.tokens.Consume(ctx, claims.TokenID)
	if err != nil {
		return nil, nil, internal(s.logger, "Failed to consume refresh token", err)
	}
	if !live {
		s.logger.Warn("Refresh token reuse detected, revoking sessions", zap.String("account_id", claims.AccountID.String()))
		if err := s.tokens.RevokeAll(ctx, claims.AccountID); err != nil {
			s.logger.Error("Failed to revoke sessions", zap.Error(err))
		}
		return nil, nil, apperrors.ErrInvalidToken
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperrors.ErrInvalidToken
		}
		return nil, nil, internal(s.logger, "Failed to load account", err)
	}
	if account.Status == models.AccountBanned {
		return nil, nil, apperrors.ErrAccountBanned
	}

	pair, err := s.IssueTokens(ctx, account)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

func (s *authService) Logout(ctx context.Context, accountID uuid.UUID) error {
	if err := s.tokens.RevokeAll(ctx, accountID); err != nil {
		return internal(s.logger, "Failed to revoke tokens", err)
	}
	return nil
}

// Authenticate validates an access token and loads the caller's current role and status.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.jwt.ValidateToken(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.New(http.StatusServiceUnavailable, "Authentication temporarily unavailable", err)
	}
	if account.Status == models.AccountBanned {
		return nil, apperrors.ErrAccountBanned
	}
	return &Principal{AccountID: account.ID, Email: account.Email, Role: account.Role}, nil
}

// IssueTokens creates a token pair and records the refresh token.
func (s *authService) IssueTokens(ctx context.Context, account *models.Account) (*TokenPair, error) {
	pair, err := s.jwt.GenerateTokenPair(account)
	if err != nil {
		return nil, internal(s.logger, "Failed to sign tokens", err)
	}
	if err := s.tokens.Save(ctx, &models.RefreshToken{
		TokenID:   pair.RefreshTokenID,
		AccountID: account.ID,
		ExpiresAt: pair.RefreshExpiresAt,
	}); err != nil {
		return nil, internal(s.logger, "Failed to store refresh token", err)
	}
	return pair, nil
}
