package models

import "github.com/google/uuid"

type Category struct {
	BaseModel
	Name        string    `json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Products    []Product `json:"products,omitempty"`
}

// Supplier is the trading profile behind a supplier account.
type Supplier struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	User          *User     `json:"user,omitempty"`
	CompanyName   string    `json:"company_name"`
	Description   string    `json:"description"`
	Country       string    `json:"country"`
	City          string    `json:"city"`
	Website       string    `json:"website"`
	YearFounded   int       `json:"year_founded"`
	EmployeeCount string    `json:"employee_count"`
	IsVerified    bool      `json:"is_verified"`
	Products      []Product `json:"products,omitempty"`
}
