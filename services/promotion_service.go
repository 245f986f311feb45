package services

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/repository"
)

type PromotionService interface {
	List(ctx context.Context, activeOnly bool, page, limit int) ([]models.Promotion, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	Create(ctx context.Context, req *models.CreatePromotionRequest) (*models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdatePromotionRequest) (*models.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Quote previews a code against a subtotal without consuming a use.
	Quote(ctx context.Context, code string, subtotal float64) (*models.PromotionQuote, error)
	// Redeem consumes one use of code. It fails with 409 once the usage limit is reached.
	Redeem(ctx context.Context, code string) error
	Unredeem(ctx context.Context, code string)
}

type promotionService struct {
	promotions repository.PromotionRepository
	now        func() time.Time
	logger     *zap.Logger
}

func NewPromotionService(promotions repository.PromotionRepository, logger *zap.Logger) PromotionService {
	return &promotionService{promotions: promotions, now: time.Now, logger: logger}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validatePromotion(p *models.Promotion) error {
	fields := map[string]string{}
	switch p.Type {
	case models.PromotionPercentage:
		if p.Value <= 0 || p.Value > 100 {
			fields["value"] = "Percentage must be greater than 0 and at most 100"
		}
	case models.PromotionFixed:
		if p.Value <= 0 {
			fields["value"] = "Amount must be greater than 0"
		}
	default:
		fields["type"] = "Type must be percentage or fixed"
	}
	if !p.EndsAt.After(p.StartsAt) {
		fields["ends_at"] = "End date must be after start date"
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}

func (s *promotionService) List(ctx context.Context, activeOnly bool, page, limit int) ([]models.Promotion, int64, error) {
	page, limit = NormalizePage(page, limit)
	promotions, total, err := s.promotions.FindAll(ctx, activeOnly, page, limit)
	if err != nil {
		return nil, 0, internal(s.logger, "Failed to list promotions", err)
	}
	return promotions, total, nil
}

func (s *promotionService) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	promotion, err := s.promotions.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Promotion")
		}
		return nil, internal(s.logger, "Failed to load promotion", err)
	}
	return promotion, nil
}

func (s *promotionService) Create(ctx context.Context, req *models.CreatePromotionRequest) (*models.Promotion, error) {
	promotion := &models.Promotion{
		Code:          normalizeCode(req.Code),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Type:          req.Type,
		Value:         req.Value,
		MinOrderValue: req.MinOrderValue,
		MaxDiscount:   req.MaxDiscount,
		UsageLimit:    req.UsageLimit,
		StartsAt:      req.StartsAt.UTC(),
		EndsAt:        req.EndsAt.UTC(),
		Active:        req.Active == nil || *req.Active,
	}
	if err := validatePromotion(promotion); err != nil {
		return nil, err
	}
	if err := s.promotions.Create(ctx, promotion); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, conflict("Promotion code already exists")
		}
		return nil, internal(s.logger, "Failed to create promotion", err)
	}
	s.logger.Info("Promotion created", zap.String("code", promotion.Code))
	return promotion, nil
}

func (s *promotionService) Update(ctx context.Context, id uuid.UUID, req *models.UpdatePromotionRequest) (*models.Promotion, error) {
	promotion, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		promotion.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		promotion.Description = *req.Description
	}
	if req.Type != nil {
		promotion.Type = *req.Type
	}
	if req.Value != nil {
		promotion.Value = *req.Value
	}
	if req.MinOrderValue != nil {
		promotion.MinOrderValue = *req.MinOrderValue
	}
	if req.MaxDiscount != nil {
		promotion.MaxDiscount = *req.MaxDiscount
	}
	if req.UsageLimit != nil {
		promotion.UsageLimit = *req.UsageLimit
	}
	if req.StartsAt != nil {
		promotion.StartsAt = req.StartsAt.UTC()
	}
	if req.EndsAt != nil {
		promotion.EndsAt = req.EndsAt.UTC()
	}
	if req.Active != nil {
		promotion.Active = *req.Active
	}
	if err := validatePromotion(promotion); err != nil {
		return nil, err
	}
	if err := s.promotions.Update(ctx, promotion); err != nil {
		return nil, internal(s.logger, "Failed to update promotion", err)
	}
	return promotion, nil
}

func (s *promotionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.promotions.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Promotion")
		}
		return internal(s.logger, "Failed to delete promotion", err)
	}
	return nil
}

// Quote reports an unusable code as an invalid quote, not an error.
func (s *promotionService) Quote(ctx context.Context, code string, subtotal float64) (*models.PromotionQuote, error) {
	code = normalizeCode(code)
	subtotal = round2(subtotal)
	quote := &models.PromotionQuote{Code: code, Total: subtotal}

	promotion, err := s.promotions.FindByCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			quote.Message = "Promotion code not found"
			return quote, nil
		}
		return nil, internal(s.logger, "Failed to load promotion", err)
	}

	if msg := unusableReason(promotion, subtotal, s.now()); msg != "" {
		quote.Message = msg
		return quote, nil
	}

	quote.Valid = true
	quote.Type = promotion.Type
	quote.Discount = Discount(promotion, subtotal)
	quote.Total = round2(subtotal - quote.Discount)
	return quote, nil
}

func unusableReason(p *models.Promotion, subtotal float64, now time.Time) string {
	switch {
	case !p.Active:
		return "Promotion is not active"
	case now.Before(p.StartsAt):
		return "Promotion has not started yet"
	case !now.Before(p.EndsAt):
		return "Promotion has expired"
	case p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit:
		return "Promotion usage limit reached"
	case subtotal < p.MinOrderValue:
		return "Order does not reach the minimum value for this promotion"
	}
	return ""
}

// Discount computes the amount p takes off subtotal, rounded to cents.
func Discount(p *models.Promotion, subtotal float64) float64 {
	var d float64
	switch p.Type {
	case models.PromotionPercentage:
		d = subtotal * p.Value / 100
		if p.MaxDiscount > 0 {
			d = math.Min(d, p.MaxDiscount)
		}
	case models.PromotionFixed:
		d = p.Value
	}
	return round2(math.Min(d, subtotal))
}

func (s *promotionService) Redeem(ctx context.Context, code string) error {
	code = normalizeCode(code)
	ok, err := s.promotions.Redeem(ctx, code, s.now())
	if err != nil {
		return internal(s.logger, "Failed to redeem promotion", err, zap.String("code", code))
	}
	if !ok {
		return apperrors.New(http.StatusConflict, "Promotion is no longer available", nil)
	}
	return nil
}

func (s *promotionService) Unredeem(ctx context.Context, code string) {
	if err := s.promotions.Unredeem(ctx, normalizeCode(code)); err != nil {
		s.logger.Error("Failed to give back promotion use", zap.String("code", code), zap.Error(err))
	}
}
