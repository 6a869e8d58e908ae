package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// Order payment markers, kept on the order itself.
const (
	OrderUnpaid          = "unpaid"
	OrderPaid            = "paid"
	OrderPaymentRefunded = "refunded"
)

// IsValid reports whether the status is a known order status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from s to next is legal.
// Delivered orders may still be refunded; cancelled and refunded are
// terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderConfirmed || next == OrderProcessing || next == OrderCancelled
	case OrderConfirmed:
		return next == OrderProcessing || next == OrderShipped || next == OrderCancelled
	case OrderProcessing:
		return next == OrderShipped
	case OrderShipped:
		return next == OrderDelivered
	case OrderDelivered:
		return next == OrderRefunded
	}
	return false
}

// CanCancel reports whether a buyer may still cancel the order.
func (s OrderStatus) CanCancel() bool {
	return s == OrderPending || s == OrderConfirmed
}

// Order is a buyer purchase. Items carry price/quantity snapshots taken at
// creation; totals are computed once and never recomputed, so later product
// price edits cannot alter historical orders.
type Order struct {
	BaseModel
	OrderNumber   string      `gorm:"uniqueIndex" json:"order_number"`
	BuyerID       uuid.UUID   `gorm:"type:uuid;index" json:"buyer_id"`
	Buyer         *User       `json:"buyer,omitempty"`
	SupplierID    uuid.UUID   `gorm:"type:uuid;index" json:"supplier_id"`
	Status        OrderStatus `gorm:"index" json:"status"`
	PaymentStatus string      `json:"payment_status"`
	Subtotal      float64     `json:"subtotal"`
	ShippingCost  float64     `json:"shipping_cost"`
	Tax           float64     `json:"tax"`
	TotalAmount   float64     `json:"total_amount"`
	Currency      string      `json:"currency"`

	ShippingAddress  string `json:"shipping_address"`
	ShippingCity     string `json:"shipping_city"`
	ShippingCountry  string `json:"shipping_country"`
	ShippingPostcode string `json:"shipping_postcode"`
	Incoterm         string `json:"incoterm"`
	Notes            string `json:"notes"`

	PlacedAt    time.Time   `json:"placed_at"`
	DeliveredAt *time.Time  `json:"delivered_at"`
	Items       []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots a product line at order time. ProductID is kept for
// reference only; the name, unit and price fields are authoritative.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName string     `json:"product_name"`
	Unit        string     `json:"unit"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	LineTotal   float64    `json:"line_total"`
}

// ComputeTotals derives the order subtotal and grand total from its items
// plus shipping and tax. Called exactly once, at order creation.
func ComputeTotals(items []OrderItem, shipping, tax float64) (subtotal, total float64) {
	for _, item := range items {
		subtotal += item.LineTotal
	}
	return subtotal, subtotal + shipping + tax
}
