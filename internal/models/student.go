package models

import "time"

// ApprovalStatus is the moderation state of a student profile or application.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// StudentTeacher is the placement profile linked one-to-one to a user account.
// SelectedSchoolID holds only the confirmed selection; the unconfirmed pending
// selection lives in the transient selection store.
type StudentTeacher struct {
	ID               string         `db:"id" json:"id"`
	UserID           string         `db:"user_id" json:"user_id"`
	FullName         string         `db:"full_name" json:"full_name"`
	PhoneNumber      string         `db:"phone_number" json:"phone_number"`
	Email            string         `db:"email" json:"email"`
	SelectedSchoolID *string        `db:"selected_school_id" json:"selected_school_id,omitempty"`
	ApprovalStatus   ApprovalStatus `db:"approval_status" json:"approval_status"`
	ApprovedBy       *string        `db:"approved_by" json:"approved_by,omitempty"`
	ApprovalDate     *time.Time     `db:"approval_date" json:"approval_date,omitempty"`
}

// StudentFilter captures criteria for listing student profiles.
type StudentFilter struct {
	ApprovalStatus ApprovalStatus
	SchoolID       string
	Search         string
	Page           int
	PageSize       int
}
