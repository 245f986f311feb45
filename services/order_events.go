package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"readify/models"
	"readify/repository"
	aws_pkg "readify/pkg/aws"
)

// OrderEventHandler applies order lifecycle events from the payment side. It is an
// aws_pkg.MessageHandler: a nil return acknowledges the message.
type OrderEventHandler struct {
	orders  repository.OrderRepository
	stock   StockService
	cache   *repository.BookCache
	metrics aws_pkg.Recorder
	logger  *zap.Logger
}

func NewOrderEventHandler(
	orders repository.OrderRepository,
	stock StockService,
	cache *repository.BookCache,
	metrics aws_pkg.Recorder,
	logger *zap.Logger,
) *OrderEventHandler {
	return &OrderEventHandler{orders: orders, stock: stock, cache: cache, metrics: metrics, logger: logger}
}

// Handle acknowledges malformed or unknown messages and events for unknown or already
// settled orders. Database errors are returned so SQS redelivers.
func (h *OrderEventHandler) Handle(ctx context.Context, body string) error {
	var event models.OrderEvent
	if err := json.Unmarshal([]byte(aws_pkg.UnwrapSNS(body)), &event); err != nil {
		h.logger.Warn("Dropping malformed order event", zap.Error(err))
		return nil
	}
	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		h.logger.Warn("Dropping order event without a valid order id", zap.String("event_type", event.EventType))
		return nil
	}
	log := h.logger.With(zap.String("event_type", event.EventType), zap.String("order_id", event.OrderID))

	switch event.EventType {
	case models.EventOrderPaid, models.EventOrderCancelled:
	default:
		log.Warn("Ignoring unknown order event")
		return nil
	}

	order, err := h.orders.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn("Order event for unknown order")
			return nil
		}
		return err
	}
	if order.Status.Final() {
		log.Info("Order already settled, skipping", zap.String("status", string(order.Status)))
		return nil
	}

	if event.EventType == models.EventOrderPaid {
		err = h.paid(ctx, order, log)
	} else {
		err = h.cancelled(ctx, order, event.Reason, log)
	}
	if err != nil {
		return err
	}
	_ = h.metrics.RecordCount(ctx, aws_pkg.MetricOrderEvents, map[string]string{"EventType": event.EventType})
	return nil
}

func (h *OrderEventHandler) paid(ctx context.Context, order *models.Order, log *zap.Logger) error {
	changed, err := h.orders.MarkPaid(ctx, order)
	if err != nil {
		return err
	}
	if !changed {
		log.Info("Order settled concurrently, skipping")
		return nil
	}
	if err := h.stock.ConfirmLines(ctx, order.ID, order.Lines()); err != nil {
		log.Error("Order paid but some reservations could not be confirmed", zap.Error(err))
	}
	// bestseller ordering depends on sold counts
	h.cache.Invalidate(ctx)
	log.Info("Order paid")
	return nil
}

func (h *OrderEventHandler) cancelled(ctx context.Context, order *models.Order, reason string, log *zap.Logger) error {
	changed, err := h.orders.MarkCancelled(ctx, order.ID)
	if err != nil {
		return err
	}
	if !changed {
		log.Info("Order settled concurrently, skipping")
		return nil
	}
	if err := h.stock.ReleaseLines(ctx, order.ID, order.Lines()); err != nil {
		log.Error("Order cancelled but some reservations could not be released", zap.Error(err))
	}
	log.Info("Order cancelled", zap.String("reason", reason))
	return nil
}
