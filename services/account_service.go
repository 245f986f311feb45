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

// AccountService is the admin view of all accounts.
type AccountService interface {
	List(ctx context.Context, filter models.AccountFilter, page, limit int) ([]models.Account, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Create(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req *models.UpdateAccountRequest) (*models.Account, error)
	UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status models.AccountStatus) (*models.Account, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type accountService struct {
	accounts  repository.AccountRepository
	tokens    repository.RefreshTokenRepository
	passwords *PasswordValidator
	logger    *zap.Logger
}

func NewAccountService(
	accounts repository.AccountRepository,
	tokens repository.RefreshTokenRepository,
	passwords *PasswordValidator,
	logger *zap.Logger,
) AccountService {
	return &accountService{accounts: accounts, tokens: tokens, passwords: passwords, logger: logger}
}

func (s *accountService) List(ctx context.Context, filter models.AccountFilter, page, limit int) ([]models.Account, int64, error) {
	accounts, total, err := s.accounts.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, internal(s.logger, "Failed to list accounts", err)
	}
	return accounts, total, nil
}

func (s *accountService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Account")
		}
		return nil, internal(s.logger, "Failed to load account", err)
	}
	return account, nil
}

func (s *accountService) Create(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error) {
	if err := s.passwords.Validate(req.Password); err != nil {
		return nil, apperrors.Validation(map[string]string{"password": err.Error()})
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, internal(s.logger, "Failed to hash password", err)
	}

	account := &models.Account{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Role:         req.Role,
		Status:       models.AccountActive,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("Email is already registered")
		}
		return nil, internal(s.logger, "Failed to create account", err)
	}
	s.logger.Info("Account created by admin", zap.String("account_id", account.ID.String()), zap.String("role", string(account.Role)))
	return account, nil
}

func (s *accountService) Update(ctx context.Context, actorID, id uuid.UUID, req *models.UpdateAccountRequest) (*models.Account, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil && *req.Role != account.Role && actorID == id {
		return nil, badRequest("You cannot change your own role")
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
	if req.Role != nil {
		account.Role = *req.Role
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, internal(s.logger, "Failed to update account", err)
	}
	return account, nil
}

// UpdateStatus bans or reactivates an account. Banning ends all of its sessions.
func (s *accountService) UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status models.AccountStatus) (*models.Account, error) {
	if actorID == id && status == models.AccountBanned {
		return nil, badRequest("You cannot ban yourself")
	}
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateStatus(ctx, id, status); err != nil {
		return nil, internal(s.logger, "Failed to update account status", err)
	}
	if status == models.AccountBanned {
		if err := s.tokens.RevokeAll(ctx, id); err != nil {
			return nil, internal(s.logger, "Failed to revoke sessions of banned account", err)
		}
	}
	account.Status = status
	s.logger.Info("Account status changed", zap.String("account_id", id.String()), zap.String("status", string(status)))
	return account, nil
}

func (s *accountService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return badRequest("You cannot delete your own account")
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Account")
		}
		return internal(s.logger, "Failed to delete account", err)
	}
	return nil
}
