package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the lifecycle state of a quote request.
type QuoteStatus string

const (
	QuotePending   QuoteStatus = "pending"
	QuoteResponded QuoteStatus = "responded"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteRejected  QuoteStatus = "rejected"
	QuoteExpired   QuoteStatus = "expired"
)

// IsValid reports whether the status is a known quote status.
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuotePending, QuoteResponded, QuoteAccepted, QuoteRejected, QuoteExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from s to next is legal.
// Accepted, rejected and expired are terminal.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	switch s {
	case QuotePending:
		return next == QuoteResponded || next == QuoteExpired
	case QuoteResponded:
		return next == QuoteAccepted || next == QuoteRejected || next == QuoteExpired
	}
	return false
}

// Quote is a buyer-initiated request for a supplier offer on a product.
// The Offer* fields are populated only on the transition to responded.
type Quote struct {
	BaseModel
	BuyerID    uuid.UUID   `gorm:"type:uuid;index" json:"buyer_id"`
	Buyer      *User       `json:"buyer,omitempty"`
	SupplierID uuid.UUID   `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier   *User       `json:"supplier,omitempty"`
	ProductID  uuid.UUID   `gorm:"type:uuid;index" json:"product_id"`
	Product    *Product    `json:"product,omitempty"`
	Quantity   int         `json:"quantity"`
	Unit       string      `json:"unit"`
	Message    string      `json:"message"`
	Status     QuoteStatus `gorm:"index" json:"status"`
	ExpiresAt  time.Time   `json:"expires_at"`

	OfferPrice      *float64   `json:"offer_price"`
	OfferMOQ        *int       `gorm:"column:offer_moq" json:"offer_moq"`
	LeadTimeDays    *int       `json:"lead_time_days"`
	OfferValidUntil *time.Time `json:"offer_valid_until"`
	ResponseNotes   string     `json:"response_notes"`
	RespondedAt     *time.Time `json:"responded_at"`
}
