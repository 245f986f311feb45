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

var staffRoles = []models.Role{models.RoleStaff, models.RoleAdmin}

// StaffService manages back-office accounts together with their staff profile.
type StaffService interface {
	List(ctx context.Context, query string, page, limit int) ([]models.Account, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Create(ctx context.Context, req *models.CreateStaffRequest) (*models.Account, error)
	Update(ctx context.Context, actorID, id uuid.UUID, req *models.UpdateStaffRequest) (*models.Account, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type staffService struct {
	accounts  repository.AccountRepository
	passwords *PasswordValidator
	logger    *zap.Logger
}

func NewStaffService(accounts repository.AccountRepository, passwords *PasswordValidator, logger *zap.Logger) StaffService {
	return &staffService{accounts: accounts, passwords: passwords, logger: logger}
}

func (s *staffService) List(ctx context.Context, query string, page, limit int) ([]models.Account, int64, error) {
	staff, total, err := s.accounts.List(ctx, models.AccountFilter{Query: query, Roles: staffRoles}, page, limit)
	if err != nil {
		return nil, 0, internal(s.logger, "Failed to list staff", err)
	}
	return staff, total, nil
}

func (s *staffService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindStaffByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Staff member")
		}
		return nil, internal(s.logger, "Failed to load staff member", err)
	}
	return account, nil
}

func (s *staffService) Create(ctx context.Context, req *models.CreateStaffRequest) (*models.Account, error) {
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
		Role:         req.Role,
		Status:       models.AccountActive,
	}
	profile := &models.StaffProfile{
		Position: strings.TrimSpace(req.Position),
		HiredAt:  req.HiredAt,
		Note:     req.Note,
	}
	if err := s.accounts.CreateStaff(ctx, account, profile); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("Email is already registered")
		}
		return nil, internal(s.logger, "Failed to create staff member", err)
	}
	s.logger.Info("Staff member created", zap.String("account_id", account.ID.String()))
	return account, nil
}

func (s *staffService) Update(ctx context.Context, actorID, id uuid.UUID, req *models.UpdateStaffRequest) (*models.Account, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Role != nil && *req.Role != account.Role && actorID == id {
		return nil, badRequest("You cannot change your own role")
	}

	profile := account.Staff
	if profile == nil {
		profile = &models.StaffProfile{AccountID: account.ID}
	}
	if req.FullName != nil {
		account.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		account.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Role != nil {
		account.Role = *req.Role
	}
	if req.Position != nil {
		profile.Position = strings.TrimSpace(*req.Position)
	}
	if req.HiredAt != nil {
		profile.HiredAt = req.HiredAt
	}
	if req.Note != nil {
		profile.Note = *req.Note
	}

	if err := s.accounts.UpdateStaff(ctx, account, profile); err != nil {
		return nil, internal(s.logger, "Failed to update staff member", err)
	}
	account.Staff = profile
	return account, nil
}

func (s *staffService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return badRequest("You cannot delete your own account")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.accounts.DeleteStaff(ctx, id); err != nil {
		return internal(s.logger, "Failed to delete staff member", err)
	}
	return nil
}
