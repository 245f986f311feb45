package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "readify/common/errors"
	"readify/models"
	"readify/repository"
	aws_pkg "readify/pkg/aws"
)

const lowStockScanPages = 50

type StockService interface {
	Get(ctx context.Context, bookID uuid.UUID) (*models.Stock, error)
	List(ctx context.Context, limit int, nextToken string) (*models.StockPage, error)
	Low(ctx context.Context) ([]models.Stock, error)
	Adjust(ctx context.Context, actorID, bookID uuid.UUID, req *models.AdjustStockRequest) (*models.Stock, error)
	Movements(ctx context.Context, bookID uuid.UUID, page, limit int) ([]models.StockMovement, int64, error)

	// ReserveLines moves every line from available to reserved, or none of them.
	ReserveLines(ctx context.Context, orderID uuid.UUID, lines []models.ReserveLine) error
	ReleaseLines(ctx context.Context, orderID uuid.UUID, lines []models.ReserveLine) error
	ConfirmLines(ctx context.Context, orderID uuid.UUID, lines []models.ReserveLine) error
}

type stockService struct {
	stock     repository.StockRepository
	log       repository.StockLogRepository
	books     repository.BookRepository
	publisher EventPublisher
	metrics   aws_pkg.Recorder
	threshold int
	logger    *zap.Logger
}

func NewStockService(
	stock repository.StockRepository,
	log repository.StockLogRepository,
	books repository.BookRepository,
	publisher EventPublisher,
	metrics aws_pkg.Recorder,
	defaultThreshold int,
	logger *zap.Logger,
) StockService {
	return &stockService{
		stock:     stock,
		log:       log,
		books:     books,
		publisher: publisher,
		metrics:   metrics,
		threshold: defaultThreshold,
		logger:    logger,
	}
}

func insufficientStock(bookID uuid.UUID) *apperrors.Error {
	e := apperrors.Wrap(apperrors.ErrInsufficientStock, nil)
	e.Fields = map[string]string{"book_id": bookID.String()}
	return e
}

func (s *stockService) requireBook(ctx context.Context, bookID uuid.UUID) error {
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Book")
		}
		return internal(s.logger, "Failed to load book", err)
	}
	return nil
}

// Get returns an empty record for a catalog book that was never stocked.
func (s *stockService) Get(ctx context.Context, bookID uuid.UUID) (*models.Stock, error) {
	stock, err := s.stock.Get(ctx, bookID.String())
	if err == nil {
		return stock, nil
	}
	if !repository.IsNotFound(err) {
		return nil, internal(s.logger, "Failed to read stock", err, zap.String("book_id", bookID.String()))
	}
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}
	return &models.Stock{BookID: bookID.String(), Threshold: s.threshold}, nil
}

func (s *stockService) List(ctx context.Context, limit int, nextToken string) (*models.StockPage, error) {
	_, limit = NormalizePage(1, limit)
	page, err := s.stock.Scan(ctx, int32(limit), nextToken)
	if err != nil {
		return nil, internal(s.logger, "Failed to list stock", err)
	}
	return page, nil
}

func (s *stockService) Low(ctx context.Context) ([]models.Stock, error) {
	low := []models.Stock{}
	token := ""
	for i := 0; i < lowStockScanPages; i++ {
		page, err := s.stock.Scan(ctx, maxPageLimit, token)
		if err != nil {
			return nil, internal(s.logger, "Failed to scan stock", err)
		}
		for _, item := range page.Items {
			if item.Low() {
				low = append(low, item)
			}
		}
		if page.NextToken == "" {
			return low, nil
		}
		token = page.NextToken
	}
	s.logger.Warn("Low stock scan truncated", zap.Int("pages", lowStockScanPages))
	return low, nil
}

// Adjust applies a signed delta or sets an absolute level. Available never goes negative.
func (s *stockService) Adjust(ctx context.Context, actorID, bookID uuid.UUID, req *models.AdjustStockRequest) (*models.Stock, error) {
	if req.Delta != nil && req.Available != nil {
		return nil, validationField("delta", "Provide either delta or available, not both")
	}
	if req.Delta == nil && req.Available == nil && req.Threshold == nil {
		return nil, validationField("delta", "Provide delta, available or threshold")
	}
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	id := bookID.String()
	var (
		stock *models.Stock
		delta int
		err   error
	)
	if req.Available != nil {
		var previous int
		previous, stock, err = s.stock.Set(ctx, id, *req.Available, req.Threshold)
		delta = *req.Available - previous
	} else {
		if req.Delta != nil {
			delta = *req.Delta
		}
		stock, err = s.stock.Adjust(ctx, id, delta, req.Threshold)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, apperrors.New(http.StatusConflict, "Stock cannot go below zero", nil)
		}
		return nil, internal(s.logger, "Failed to adjust stock", err, zap.String("book_id", id))
	}

	if delta != 0 {
		s.record(ctx, []models.StockMovement{{
			BookID:  bookID,
			Delta:   delta,
			Reason:  models.MovementAdjustment,
			Note:    req.Reason,
			ActorID: &actorID,
		}})
	}
	s.logger.Info("Stock adjusted",
		zap.String("book_id", id),
		zap.Int("delta", delta),
		zap.Int("available", stock.Available),
		zap.String("actor_id", actorID.String()),
	)
	s.checkLow(ctx, stock)
	return stock, nil
}

func (s *stockService) Movements(ctx context.Context, bookID uuid.UUID, page, limit int) ([]models.StockMovement, int64, error) {
	page, limit = NormalizePage(page, limit)
	movements, total, err := s.log.FindMovements(ctx, bookID, page, limit)
	if err != nil {
		return nil, 0, internal(s.logger, "Failed to list stock movements", err)
	}
	return movements, total, nil
}

func (s *stockService) ReserveLines(ctx context.Context, orderID uuid.UUID, lines []models.ReserveLine) error {
	taken := make([]models.ReserveLine, 0, len(lines))
	for _, line := range lines {
		if err := s.stock.Reserve(ctx, line.BookID.String(), line.Quantity); err != nil {
			s.rollback(ctx, orderID, taken)
			if errors.Is(err, repository.ErrInsufficientStock) {
				return insufficientStock(line.BookID)
			}
			return internal(s.logger, "Failed to reserve stock", err, zap.String("book_id", line.BookID.String()))
		}
		taken = append(taken, line)
	}
	s.record(ctx, movements(orderID, lines, models.MovementReserve, -1))
	return nil
}

func (s *stockService) rollback(ctx context.Context, orderID uuid.UUID, taken []models.ReserveLine) {
	if len(taken) == 0 {
		return
	}
	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCheckoutRollbacks, nil)
	for _, line := range taken {
		if err := s.stock.Release(ctx, line.BookID.String(), line.Quantity); err != nil {
			s.logger.Error("Failed to roll back reservation",
				zap.String("order_id", orderID.String()),
				zap.String("book_id", line.BookID.String()),
				zap.Int("quantity", line.Quantity),
				zap.Error(err),
			)
		}
	}
}

// ReleaseLines returns reserved quantities to available. Every line is attempted;
// the first failure is returned.
func (s *stockService) ReleaseLines(ctx context.Context, orderID uuid.UUID, lines []models.ReserveLine) error {
	return s.apply(ctx, orderID, lines, models.MovementRelease, 1, s.stock.Release)
}

// ConfirmLines drops reserved quantities once an order is paid.
func (s *stockService) ConfirmLines(ctx context.Context, orderID uuid.UUID, lines []models.ReserveLine) error {
	return s.apply(ctx, orderID, lines, models.MovementConfirm, -1, s.stock.Confirm)
}

func (s *stockService) apply(
	ctx context.Context,
	orderID uuid.UUID,
	lines []models.ReserveLine,
	reason models.MovementReason,
	sign int,
	op func(ctx context.Context, bookID string, quantity int) error,
) error {
	var firstErr error
	done := make([]models.ReserveLine, 0, len(lines))
	for _, line := range lines {
		if err := op(ctx, line.BookID.String(), line.Quantity); err != nil {
			s.logger.Error("Stock operation failed",
				zap.String("reason", string(reason)),
				zap.String("order_id", orderID.String()),
				zap.String("book_id", line.BookID.String()),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		done = append(done, line)
	}
	s.record(ctx, movements(orderID, done, reason, sign))
	return firstErr
}

// movements builds audit rows for an order. Confirm rows are negative: they drop reserved units.
func movements(orderID uuid.UUID, lines []models.ReserveLine, reason models.MovementReason, sign int) []models.StockMovement {
	ref := orderID
	out := make([]models.StockMovement, 0, len(lines))
	for _, line := range lines {
		out = append(out, models.StockMovement{
			BookID:      line.BookID,
			Delta:       sign * line.Quantity,
			Reason:      reason,
			ReferenceID: &ref,
		})
	}
	return out
}

// record writes audit rows. Stock itself is already changed, so failures are only logged.
func (s *stockService) record(ctx context.Context, movements []models.StockMovement) {
	if len(movements) == 0 {
		return
	}
	if err := s.log.RecordMovements(ctx, movements); err != nil {
		s.logger.Error("Failed to record stock movements", zap.Int("count", len(movements)), zap.Error(err))
	}
}

func (s *stockService) checkLow(ctx context.Context, stock *models.Stock) {
	notifyLowStock(ctx, s.publisher, s.metrics, stock)
}

func notifyLowStock(ctx context.Context, publisher EventPublisher, metrics aws_pkg.Recorder, stock *models.Stock) {
	if stock == nil || !stock.Low() {
		return
	}
	_ = metrics.RecordCount(ctx, aws_pkg.MetricStockLow, map[string]string{"BookID": stock.BookID})
	publisher.Publish(ctx, models.EventStockLow, models.StockLowEvent{
		EventType: models.EventStockLow,
		BookID:    stock.BookID,
		Available: stock.Available,
		Threshold: stock.Threshold,
		Timestamp: time.Now().UTC(),
	})
}
