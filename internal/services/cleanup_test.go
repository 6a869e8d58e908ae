package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/tradegate/internal/models"
)

func newCleanupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.PendingUser{}, &models.Quote{}))
	return db
}

func TestCleanupSweep(t *testing.T) {
	db := newCleanupTestDB(t)
	now := time.Now()

	expired := models.PendingUser{
		Name:          "Expired",
		Email:         "expired@example.com",
		PasswordHash:  "x",
		Role:          models.RoleBuyer,
		CodeHash:      "x",
		CodeExpiresAt: now.Add(-time.Hour),
		ExpiresAt:     now.Add(-time.Hour),
	}
	live := models.PendingUser{
		Name:          "Live",
		Email:         "live@example.com",
		PasswordHash:  "x",
		Role:          models.RoleBuyer,
		CodeHash:      "x",
		CodeExpiresAt: now.Add(10 * time.Minute),
		ExpiresAt:     now.Add(15 * time.Minute),
	}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&live).Error)

	verified := models.User{
		Name: "Kept", Email: "kept@example.com",
		Role: models.RoleBuyer, IsEmailVerified: true, IsActive: true,
	}
	require.NoError(t, db.Create(&verified).Error)
	stale := models.User{
		Name: "Stale", Email: "stale@example.com",
		Role: models.RoleBuyer, IsEmailVerified: false, IsActive: false,
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Model(&stale).
		Update("created_at", now.Add(-48*time.Hour)).Error)

	overdueQuote := models.Quote{
		BuyerID: verified.ID, SupplierID: verified.ID, ProductID: verified.ID,
		Quantity: 1, Status: models.QuoteResponded,
		ExpiresAt: now.Add(-time.Hour),
	}
	freshQuote := models.Quote{
		BuyerID: verified.ID, SupplierID: verified.ID, ProductID: verified.ID,
		Quantity: 1, Status: models.QuotePending,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, db.Create(&overdueQuote).Error)
	require.NoError(t, db.Create(&freshQuote).Error)

	svc := NewCleanupService(db, zerolog.Nop(), time.Hour, 24*time.Hour)
	svc.runOnce()

	var pendingEmails []string
	require.NoError(t, db.Model(&models.PendingUser{}).
		Pluck("email", &pendingEmails).Error)
	assert.Equal(t, []string{"live@example.com"}, pendingEmails)

	var userEmails []string
	require.NoError(t, db.Model(&models.User{}).
		Pluck("email", &userEmails).Error)
	assert.Equal(t, []string{"kept@example.com"}, userEmails)

	var gotOverdue, gotFresh models.Quote
	require.NoError(t, db.First(&gotOverdue, "id = ?", overdueQuote.ID).Error)
	require.NoError(t, db.First(&gotFresh, "id = ?", freshQuote.ID).Error)
	assert.Equal(t, models.QuoteExpired, gotOverdue.Status)
	assert.Equal(t, models.QuotePending, gotFresh.Status)
}
