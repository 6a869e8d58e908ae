package models

import "github.com/google/uuid"

// Review is a buyer's rating of a product. The unique index enforces at
// most one review per (user, product) pair; eligibility (a delivered order
// containing the product) is checked by the handler.
type Review struct {
	BaseModel
	ProductID uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:idx_reviews_product_user" json:"product_id"`
	Product   *Product   `json:"product,omitempty"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_reviews_product_user" json:"user_id"`
	User      *User      `json:"user,omitempty"`
	OrderID   *uuid.UUID `gorm:"type:uuid" json:"order_id"`
	Rating    int        `json:"rating"`
	Title     string     `json:"title"`
	Comment   string     `json:"comment"`
}
