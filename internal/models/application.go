package models

import "time"

// StudentApplication requests one slot against a (school, subject) capacity
// pair. Unique per (student, subject, school).
type StudentApplication struct {
	ID              string         `db:"id" json:"id"`
	StudentID       string         `db:"student_id" json:"student_id"`
	SubjectID       string         `db:"subject_id" json:"subject_id"`
	SchoolID        string         `db:"school_id" json:"school_id"`
	Status          ApprovalStatus `db:"status" json:"status"`
	ApplicationDate time.Time      `db:"application_date" json:"application_date"`
	ApprovedBy      *string        `db:"approved_by" json:"approved_by,omitempty"`
	ApprovalDate    *time.Time     `db:"approval_date" json:"approval_date,omitempty"`
}

// ApplicationDetail adds student/subject/school names for list views.
type ApplicationDetail struct {
	StudentApplication
	StudentName string `db:"student_name" json:"student_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	SchoolName  string `db:"school_name" json:"school_name"`
}

// ApplicationFilter captures criteria for listing applications.
type ApplicationFilter struct {
	StudentID string
	SchoolID  string
	Status    ApprovalStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
