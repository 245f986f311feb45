package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"readify/models"
	"readify/repository"
)

type SupplierService interface {
	List(ctx context.Context, query string, page, limit int) ([]models.Supplier, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	Create(ctx context.Context, req *models.SupplierRequest) (*models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateSupplierRequest) (*models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type supplierService struct {
	suppliers repository.SupplierRepository
	logger    *zap.Logger
}

func NewSupplierService(suppliers repository.SupplierRepository, logger *zap.Logger) SupplierService {
	return &supplierService{suppliers: suppliers, logger: logger}
}

func (s *supplierService) List(ctx context.Context, query string, page, limit int) ([]models.Supplier, int64, error) {
	page, limit = NormalizePage(page, limit)
	suppliers, total, err := s.suppliers.FindAll(ctx, strings.TrimSpace(query), page, limit)
	if err != nil {
		return nil, 0, internal(s.logger, "Failed to list suppliers", err)
	}
	return suppliers, total, nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Supplier")
		}
		return nil, internal(s.logger, "Failed to load supplier", err)
	}
	return supplier, nil
}

func (s *supplierService) Create(ctx context.Context, req *models.SupplierRequest) (*models.Supplier, error) {
	supplier := &models.Supplier{
		Name:        strings.TrimSpace(req.Name),
		ContactName: strings.TrimSpace(req.ContactName),
		Email:       normalizeEmail(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		Active:      req.Active == nil || *req.Active,
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("Supplier name already exists")
		}
		return nil, internal(s.logger, "Failed to create supplier", err)
	}
	return supplier, nil
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateSupplierRequest) (*models.Supplier, error) {
	supplier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		supplier.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactName != nil {
		supplier.ContactName = strings.TrimSpace(*req.ContactName)
	}
	if req.Email != nil {
		supplier.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		supplier.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		supplier.Address = strings.TrimSpace(*req.Address)
	}
	if req.Active != nil {
		supplier.Active = *req.Active
	}
	if err := s.suppliers.Update(ctx, supplier); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("Supplier name already exists")
		}
		return nil, internal(s.logger, "Failed to update supplier", err)
	}
	return supplier, nil
}

func (s *supplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.suppliers.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Supplier")
		}
		return internal(s.logger, "Failed to delete supplier", err)
	}
	return nil
}
