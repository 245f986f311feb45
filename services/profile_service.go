package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/repository"
)

// ProfileService manages the signed-in account's own data.
type ProfileService interface {
	Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	Update(ctx context.Context, accountID uuid.UUID, req *models.UpdateProfileRequest) (*models.Account, error)
	// ChangePassword ends every other session and returns fresh tokens for this one.
	ChangePassword(ctx context.Context, accountID uuid.UUID, req *models.ChangePasswordRequest) (*TokenPair, error)
}

type profileService struct {
	accounts  repository.AccountRepository
	tokens    repository.RefreshTokenRepository
	auth      AuthService
	passwords *PasswordValidator
	logger    *zap.Logger
}

func NewProfileService(
	accounts repository.AccountRepository,
	tokens repository.RefreshTokenRepository,
	auth AuthService,
	passwords *PasswordValidator,
	logger *zap.Logger,
) ProfileService {
	return &profileService{accounts: accounts, tokens: tokens, auth: auth, passwords: passwords, logger: logger}
}

func (s *profileService) Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Account")
		}
		return nil, internal(s.logger, "Failed to load profile", err)
	}
	return account, nil
}

func (s *profileService) Update(ctx context.Context, accountID uuid.UUID, req *models.UpdateProfileRequest) (*models.Account, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		account.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		account.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		account.Address = strings.TrimSpace(*req.Address)
	}
	if req.AvatarURL != nil {
		account.AvatarURL = *req.AvatarURL
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, internal(s.logger, "Failed to update profile", err)
	}
	return account, nil
}

func (s *profileService) ChangePassword(ctx context.Context, accountID uuid.UUID, req *models.ChangePasswordRequest) (*TokenPair, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(account.PasswordHash, req.CurrentPassword) {
		return nil, apperrors.Validation(map[string]string{"current_password": "Current password is incorrect"})
	}
	if req.CurrentPassword == req.NewPassword {
		return nil, apperrors.Validation(map[string]string{"new_password": "New password must differ from the current one"})
	}
	if err := s.passwords.Validate(req.NewPassword); err != nil {
		return nil, apperrors.Validation(map[string]string{"new_password": err.Error()})
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return nil, internal(s.logger, "Failed to hash password", err)
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return nil, internal(s.logger, "Failed to update password", err)
	}
	if err := s.tokens.RevokeAll(ctx, accountID); err != nil {
		return nil, internal(s.logger, "Failed to revoke sessions", err)
	}
	s.logger.Info("Password changed", zap.String("account_id", accountID.String()))
	return s.auth.IssueTokens(ctx, account)
}
