package models

// Settings stores marketplace-wide configuration managed via the admin
// panel. A single row exists; it is created at startup, not lazily on first
// access.
type Settings struct {
	BaseModel
	SiteName         string  `json:"site_name"`
	SupportEmail     string  `json:"support_email"`
	DefaultCurrency  string  `json:"default_currency"`
	TaxRate          float64 `json:"tax_rate"`
	ShippingFlatRate float64 `json:"shipping_flat_rate"`
	QuoteExpiryDays  int     `json:"quote_expiry_days"`
	MaintenanceMode  bool    `json:"maintenance_mode"`
}
