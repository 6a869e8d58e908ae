package services

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/models"
)

// Notifier creates in-app notification rows. All methods are best effort:
// failures are logged and never propagated to the calling request.
type Notifier struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewNotifier constructs a Notifier.
func NewNotifier(db *gorm.DB, log zerolog.Logger) *Notifier {
	return &Notifier{db: db, log: log}
}

// Notify writes a notification row for the user.
func (n *Notifier) Notify(userID uuid.UUID, kind, title, message string) {
	notification := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := n.db.Create(&notification).Error; err != nil {
		n.log.Error().Err(err).Str("user_id", userID.String()).Str("type", kind).
			Msg("failed to create notification")
	}
}
