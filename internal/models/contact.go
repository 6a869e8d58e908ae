package models

// Contact statuses.
const (
	ContactNew        = "new"
	ContactInProgress = "in_progress"
	ContactResolved   = "resolved"
)

// Contact is a message submitted through the public contact form.
type Contact struct {
	BaseModel
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Status  string `gorm:"index" json:"status"`
}
