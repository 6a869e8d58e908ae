package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	NotificationWelcome        = "welcome"
	NotificationQuoteResponded = "quote_responded"
	NotificationOrderStatus    = "order_status"
	NotificationShipmentStatus = "shipment_status"
)

// Notification is a per-user message created as a best-effort side effect
// of other operations.
type Notification struct {
	BaseModel
	UserID  uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Type    string     `json:"type"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	IsRead  bool       `gorm:"index" json:"is_read"`
	ReadAt  *time.Time `json:"read_at"`
}
