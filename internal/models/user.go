package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserRole discriminates marketplace participants.
type UserRole string

const (
	RoleBuyer    UserRole = "buyer"
	RoleSupplier UserRole = "supplier"
	RoleAdmin    UserRole = "admin"
)

// IsValid reports whether the role is one of the known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleBuyer, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// RecentlyViewedCap bounds the per-user recently viewed list.
const RecentlyViewedCap = 20

// User is a confirmed, durable account. Users are created only by
// verification-code consumption, OAuth login, or admin seeding; a User and a
// PendingUser never coexist for the same email.
type User struct {
	BaseModel
	Name            string         `json:"name"`
	Email           string         `gorm:"uniqueIndex" json:"email"`
	PasswordHash    string         `json:"-"`
	Role            UserRole       `gorm:"index" json:"role"`
	CompanyName     string         `json:"company_name"`
	Country         string         `json:"country"`
	Phone           string         `json:"phone"`
	AuthProvider    string         `json:"auth_provider"` // local|google
	IsEmailVerified bool           `json:"is_email_verified"`
	IsActive        bool           `json:"is_active"`
	RecentlyViewed  pq.StringArray `gorm:"type:text[]" json:"recently_viewed"`
	Favorites       []UserFavorite `json:"favorites,omitempty"`
	LastLoginAt     *time.Time     `json:"last_login_at"`
}

// PendingUser is the time-boxed, unconfirmed registration awaiting email
// verification. ExpiresAt is derived from the latest code issuance, so
// re-registering or resending a code extends the record's life along with
// the code's.
type PendingUser struct {
	BaseModel
	Name          string    `json:"name"`
	Email         string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash  string    `json:"-"`
	Role          UserRole  `json:"role"`
	CompanyName   string    `json:"company_name"`
	Country       string    `json:"country"`
	CodeHash      string    `json:"-"`
	CodeExpiresAt time.Time `json:"code_expires_at"`
	ExpiresAt     time.Time `gorm:"index" json:"expires_at"`
}

// UserFavorite marks a product as favorited by a user. The unique index
// gives the set semantics: adding twice is a no-op.
type UserFavorite struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_favorites_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_favorites_user_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
}

// PasswordResetToken tracks forgot-password codes sent by email.
type PasswordResetToken struct {
	BaseModel
	Email     string     `gorm:"index" json:"email"`
	Token     string     `gorm:"uniqueIndex" json:"-"`
	CodeHash  string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}

// PushRecentlyViewed prepends productID to the list, removing any previous
// occurrence and trimming to RecentlyViewedCap.
func PushRecentlyViewed(list []string, productID string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, productID)
	for _, id := range list {
		if id == productID {
			continue
		}
		out = append(out, id)
	}
	if len(out) > RecentlyViewedCap {
		out = out[:RecentlyViewedCap]
	}
	return out
}
