package services

import (
	"sync"

	"gorm.io/gorm"

	"github.com/example/tradegate/internal/models"
)

// SettingsService owns the single marketplace settings row. Init runs once
// at startup so there is no lazy get-or-create race between first
// accessors.
type SettingsService struct {
	db *gorm.DB

	mu      sync.RWMutex
	current models.Settings
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Init loads the settings row, creating it with defaults when absent.
func (s *SettingsService) Init() error {
	var settings models.Settings
	err := s.db.First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = models.Settings{
			SiteName:         "Tradegate",
			SupportEmail:     "support@tradegate.example",
			DefaultCurrency:  "USD",
			TaxRate:          0,
			ShippingFlatRate: 0,
			QuoteExpiryDays:  30,
		}
		if err := s.db.Create(&settings).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}

// Current returns the in-memory settings snapshot.
func (s *SettingsService) Current() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update persists new settings values and refreshes the snapshot.
func (s *SettingsService) Update(input models.Settings) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.current
	settings.SiteName = input.SiteName
	settings.SupportEmail = input.SupportEmail
	settings.DefaultCurrency = input.DefaultCurrency
	settings.TaxRate = input.TaxRate
	settings.ShippingFlatRate = input.ShippingFlatRate
	settings.QuoteExpiryDays = input.QuoteExpiryDays
	settings.MaintenanceMode = input.MaintenanceMode

	if err := s.db.Save(&settings).Error; err != nil {
		return models.Settings{}, err
	}

	s.current = settings
	return settings, nil
}
