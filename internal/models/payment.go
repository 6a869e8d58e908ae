package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// IsValid reports whether the status is a known payment status.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted,
		PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from s to next is legal.
// Failed, refunded and cancelled are terminal.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentProcessing || next == PaymentCompleted ||
			next == PaymentFailed || next == PaymentCancelled
	case PaymentProcessing:
		return next == PaymentCompleted || next == PaymentFailed || next == PaymentCancelled
	case PaymentCompleted:
		return next == PaymentRefunded
	}
	return false
}

// CanRefund reports whether a refund is legal from this state.
func (s PaymentStatus) CanRefund() bool {
	return s == PaymentCompleted
}

// Payment settles an order; there is at most one per order. The Refund*
// fields form an immutable sub-record written once on refund.
type Payment struct {
	BaseModel
	OrderID        uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Order          *Order        `json:"order,omitempty"`
	BuyerID        uuid.UUID     `gorm:"type:uuid;index" json:"buyer_id"`
	Amount         float64       `json:"amount"`
	Currency       string        `json:"currency"`
	Method         string        `json:"method"` // card|wire_transfer|escrow|letter_of_credit
	Status         PaymentStatus `gorm:"index" json:"status"`
	TransactionRef string        `json:"transaction_ref"`
	PaidAt         *time.Time    `json:"paid_at"`

	RefundAmount *float64   `json:"refund_amount"`
	RefundReason string     `json:"refund_reason"`
	RefundedAt   *time.Time `json:"refunded_at"`
}
