package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/tradegate/internal/models"
)

// CleanupService purges abandoned, never-verified signups. It is defense in
// depth alongside the per-record expiry check on PendingUser lookups: the
// sweep only performs unconditional deletes matching an age predicate, so
// overlapping runs are harmless.
type CleanupService struct {
	db       *gorm.DB
	log      zerolog.Logger
	interval time.Duration
	maxAge   time.Duration
}

// NewCleanupService constructs a CleanupService.
func NewCleanupService(db *gorm.DB, log zerolog.Logger, interval, maxAge time.Duration) *CleanupService {
	return &CleanupService{db: db, log: log, interval: interval, maxAge: maxAge}
}

// Start runs the sweep immediately, then on every tick until ctx is
// cancelled.
func (s *CleanupService) Start(ctx context.Context) {
	go func() {
		s.runOnce()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
}

func (s *CleanupService) runOnce() {
	now := time.Now()

	pending := s.db.Where("expires_at < ?", now).Delete(&models.PendingUser{})
	if pending.Error != nil {
		s.log.Error().Err(pending.Error).Msg("cleanup: pending user purge failed")
	}

	cutoff := now.Add(-s.maxAge)
	stale := s.db.Where("is_email_verified = ? AND is_active = ? AND created_at < ?",
		false, false, cutoff).Delete(&models.User{})
	if stale.Error != nil {
		s.log.Error().Err(stale.Error).Msg("cleanup: stale user purge failed")
	}

	quotes := s.db.Model(&models.Quote{}).
		Where("status IN ? AND expires_at < ?",
			[]models.QuoteStatus{models.QuotePending, models.QuoteResponded}, now).
		Update("status", models.QuoteExpired)
	if quotes.Error != nil {
		s.log.Error().Err(quotes.Error).Msg("cleanup: quote expiry failed")
	}

	if pending.RowsAffected > 0 || stale.RowsAffected > 0 || quotes.RowsAffected > 0 {
		s.log.Info().
			Int64("pending_purged", pending.RowsAffected).
			Int64("stale_users_purged", stale.RowsAffected).
			Int64("quotes_expired", quotes.RowsAffected).
			Msg("cleanup sweep completed")
	}
}
