package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"readify/models"
	"readify/repository"
	aws_pkg "readify/pkg/aws"
)

// ReceiptService books deliveries from suppliers into stock.
type ReceiptService interface {
	Receive(ctx context.Context, staffID uuid.UUID, req *models.CreateReceiptRequest) (*models.StockReceipt, error)
	List(ctx context.Context, supplierID *uuid.UUID, page, limit int) ([]models.StockReceipt, int64, error)
}

type receiptService struct {
	suppliers repository.SupplierRepository
	books     repository.BookRepository
	stock     repository.StockRepository
	log       repository.StockLogRepository
	publisher EventPublisher
	metrics   aws_pkg.Recorder
	logger    *zap.Logger
}

func NewReceiptService(
	suppliers repository.SupplierRepository,
	books repository.BookRepository,
	stock repository.StockRepository,
	log repository.StockLogRepository,
	publisher EventPublisher,
	metrics aws_pkg.Recorder,
	logger *zap.Logger,
) ReceiptService {
	return &receiptService{
		suppliers: suppliers,
		books:     books,
		stock:     stock,
		log:       log,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Receive increments stock for every line and persists the receipt. If any step
// fails, stock already added is taken back out.
func (s *receiptService) Receive(ctx context.Context, staffID uuid.UUID, req *models.CreateReceiptRequest) (*models.StockReceipt, error) {
	supplier, err := s.suppliers.FindByID(ctx, req.SupplierID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, validationField("supplier_id", "Supplier does not exist")
		}
		return nil, internal(s.logger, "Failed to load supplier", err)
	}
	if !supplier.Active {
		return nil, validationField("supplier_id", "Supplier is inactive")
	}

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, validationField(fmt.Sprintf("items[%d].quantity", i), "Quantities must be positive")
		}
	}
	if err := s.requireBooks(ctx, req.Items); err != nil {
		return nil, err
	}

	receipt := &models.StockReceipt{
		ID:         uuid.New(),
		SupplierID: supplier.ID,
		StaffID:    staffID,
		Note:       req.Note,
	}
	var (
		added     []models.ReceiptItemInput
		levels    []*models.Stock
		movements []models.StockMovement
	)
	for _, item := range req.Items {
		stock, err := s.stock.Adjust(ctx, item.BookID.String(), item.Quantity, nil)
		if err != nil {
			s.compensate(ctx, receipt.ID, added)
			return nil, internal(s.logger, "Failed to increment stock", err, zap.String("book_id", item.BookID.String()))
		}
		added = append(added, item)
		levels = append(levels, stock)

		receipt.Items = append(receipt.Items, models.StockReceiptItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			UnitCost: round2(item.UnitCost),
		})
		receipt.TotalCost += float64(item.Quantity) * item.UnitCost
		actor := staffID
		movements = append(movements, models.StockMovement{
			BookID:  item.BookID,
			Delta:   item.Quantity,
			Reason:  models.MovementReceipt,
			Note:    req.Note,
			ActorID: &actor,
		})
	}
	receipt.TotalCost = round2(receipt.TotalCost)

	if err := s.log.CreateReceipt(ctx, receipt, movements); err != nil {
		s.compensate(ctx, receipt.ID, added)
		return nil, internal(s.logger, "Failed to save stock receipt", err)
	}
	receipt.Supplier = supplier

	for i, item := range added {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricStockReceived, map[string]string{"BookID": item.BookID.String()})
		notifyLowStock(ctx, s.publisher, s.metrics, levels[i])
	}
	s.logger.Info("Stock received",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("supplier_id", supplier.ID.String()),
		zap.Int("lines", len(receipt.Items)),
	)
	return receipt, nil
}

func (s *receiptService) requireBooks(ctx context.Context, items []models.ReceiptItemInput) error {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.BookID] {
			seen[item.BookID] = true
			ids = append(ids, item.BookID)
		}
	}
	books, err := s.books.FindByIDs(ctx, ids)
	if err != nil {
		return internal(s.logger, "Failed to load books", err)
	}
	if len(books) != len(ids) {
		return validationField("items", "One or more books do not exist")
	}
	return nil
}

func (s *receiptService) compensate(ctx context.Context, receiptID uuid.UUID, added []models.ReceiptItemInput) {
	for _, item := range added {
		if _, err := s.stock.Adjust(ctx, item.BookID.String(), -item.Quantity, nil); err != nil {
			s.logger.Error("Failed to revert received stock",
				zap.String("receipt_id", receiptID.String()),
				zap.String("book_id", item.BookID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (s *receiptService) List(ctx context.Context, supplierID *uuid.UUID, page, limit int) ([]models.StockReceipt, int64, error) {
	page, limit = NormalizePage(page, limit)
	receipts, total, err := s.log.FindReceipts(ctx, supplierID, page, limit)
	if err != nil {
		return nil, 0, internal(s.logger, "Failed to list stock receipts", err)
	}
	return receipts, total, nil
}
