package models

import "time"

// Assessor evaluates student teachers at their placement schools. The linked
// user account, when present, is provisioned by the external identity service.
type Assessor struct {
	ID              string    `db:"id" json:"id"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	FullName        string    `db:"full_name" json:"full_name"`
	Email           string    `db:"email" json:"email"`
	PhoneNumber     string    `db:"phone_number" json:"phone_number"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CredentialsSent bool      `db:"credentials_sent" json:"credentials_sent"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
