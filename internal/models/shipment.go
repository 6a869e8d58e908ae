package models

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	ShipmentPendingPickup    ShipmentStatus = "pending_pickup"
	ShipmentPickedUp         ShipmentStatus = "picked_up"
	ShipmentInTransit        ShipmentStatus = "in_transit"
	ShipmentCustomsClearance ShipmentStatus = "customs_clearance"
	ShipmentOutForDelivery   ShipmentStatus = "out_for_delivery"
	ShipmentDelivered        ShipmentStatus = "delivered"
	ShipmentDelayed          ShipmentStatus = "delayed"
	ShipmentFailedDelivery   ShipmentStatus = "failed_delivery"
	ShipmentReturned         ShipmentStatus = "returned"
)

// IsValid reports whether the status is a known shipment status.
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentPendingPickup, ShipmentPickedUp, ShipmentInTransit,
		ShipmentCustomsClearance, ShipmentOutForDelivery, ShipmentDelivered,
		ShipmentDelayed, ShipmentFailedDelivery, ShipmentReturned:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from s to next is legal.
// Delivered and returned are terminal.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	switch s {
	case ShipmentPendingPickup:
		return next == ShipmentPickedUp
	case ShipmentPickedUp:
		return next == ShipmentInTransit || next == ShipmentDelayed
	case ShipmentInTransit:
		return next == ShipmentCustomsClearance || next == ShipmentOutForDelivery ||
			next == ShipmentDelayed
	case ShipmentCustomsClearance:
		return next == ShipmentInTransit || next == ShipmentOutForDelivery ||
			next == ShipmentDelayed
	case ShipmentOutForDelivery:
		return next == ShipmentDelivered || next == ShipmentFailedDelivery
	case ShipmentDelayed:
		return next == ShipmentInTransit || next == ShipmentCustomsClearance ||
			next == ShipmentOutForDelivery
	case ShipmentFailedDelivery:
		return next == ShipmentOutForDelivery || next == ShipmentReturned
	}
	return false
}

// Shipment tracks an order's physical delivery; there is at most one per
// order. Events is an append-only tracking history, never rewritten.
type Shipment struct {
	BaseModel
	OrderID           uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Order             *Order          `json:"order,omitempty"`
	TrackingNumber    string          `gorm:"uniqueIndex" json:"tracking_number"`
	Carrier           string          `json:"carrier"`
	Status            ShipmentStatus  `gorm:"index" json:"status"`
	Origin            string          `json:"origin"`
	Destination       string          `json:"destination"`
	CurrentLocation   string          `json:"current_location"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery"`
	DeliveredAt       *time.Time      `json:"delivered_at"`
	Events            []ShipmentEvent `json:"events,omitempty"`
}

// ShipmentEvent is a single tracking history entry.
type ShipmentEvent struct {
	BaseModel
	ShipmentID  uuid.UUID      `gorm:"type:uuid;index" json:"shipment_id"`
	Status      ShipmentStatus `json:"status"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	OccurredAt  time.Time      `json:"occurred_at"`
}
