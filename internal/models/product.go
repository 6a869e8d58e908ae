package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a supplier listing. AverageRating and NumReviews are
// denormalized from the reviews table and recomputed after every review
// mutation.
type Product struct {
	BaseModel
	Name            string         `json:"name"`
	Slug            string         `gorm:"uniqueIndex" json:"slug"`
	Description     string         `json:"description"`
	CategoryID      *uuid.UUID     `gorm:"type:uuid" json:"category_id"`
	Category        *Category      `json:"category,omitempty"`
	SupplierID      uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier        *Supplier      `json:"supplier,omitempty"`
	UnitPrice       float64        `json:"unit_price"`
	Currency        string         `json:"currency"`
	Unit            string         `json:"unit"` // piece|kg|ton|container
	MOQ             int            `gorm:"column:moq" json:"moq"`
	LeadTimeDays    int            `json:"lead_time_days"`
	CountryOfOrigin string         `json:"country_of_origin"`
	HSCode          string         `json:"hs_code"`
	Images          pq.StringArray `gorm:"type:text[]" json:"images"`
	IsActive        bool           `json:"is_active"`
	AverageRating   float64        `json:"average_rating"`
	NumReviews      int            `json:"num_reviews"`
}
