package models

import "time"

// Event types published to the shop events topic.
const (
	EventCheckoutRequested = "checkout.requested"
	EventPromotionRedeemed = "promotion.redeemed"
	EventStockLow          = "stock.low"
)

// Event types consumed from the order events queue.
const (
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
)

// CheckoutRequestedEvent tells the order/payment system a checkout is awaiting payment.
type CheckoutRequestedEvent struct {
	EventType     string      `json:"event_type"`
	OrderID       string      `json:"order_id"`
	AccountID     string      `json:"account_id"`
	Items         []OrderItem `json:"items"`
	Subtotal      float64     `json:"subtotal"`
	Discount      float64     `json:"discount"`
	Total         float64     `json:"total"`
	PromotionCode string      `json:"promotion_code,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

type PromotionRedeemedEvent struct {
	EventType string    `json:"event_type"`
	Code      string    `json:"code"`
	OrderID   string    `json:"order_id"`
	Discount  float64   `json:"discount"`
	Timestamp time.Time `json:"timestamp"`
}

type StockLowEvent struct {
	EventType string    `json:"event_type"`
	BookID    string    `json:"book_id"`
	Available int       `json:"available"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent is an order lifecycle notification from the payment side.
type OrderEvent struct {
	EventType string    `json:"event_type"`
	OrderID   string    `json:"order_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
