package models

import "time"

// SchoolAssessment records that an assessor covers a school for a cycle.
// Unique per (assessor, school); assignment is idempotent.
type SchoolAssessment struct {
	ID             string    `db:"id" json:"id"`
	AssessorID     string    `db:"assessor_id" json:"assessor_id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	AssignedDate   time.Time `db:"assigned_date" json:"assigned_date"`
	AssessmentDate time.Time `db:"assessment_date" json:"assessment_date"`
	IsCompleted    bool      `db:"is_completed" json:"is_completed"`
}

// AssessmentStatus is the per-student assessment progress.
type AssessmentStatus string

const (
	AssessmentStatusPending    AssessmentStatus = "pending"
	AssessmentStatusInProgress AssessmentStatus = "in_progress"
	AssessmentStatusCompleted  AssessmentStatus = "completed"
)

// StudentAssessment is one student under assessment. Rows are a point-in-time
// snapshot of the school's approved students taken when the assessor was
// assigned; students approved later are not added retroactively.
type StudentAssessment struct {
	ID             string           `db:"id" json:"id"`
	AssessorID     string           `db:"assessor_id" json:"assessor_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	SchoolID       string           `db:"school_id" json:"school_id"`
	AssessmentDate time.Time        `db:"assessment_date" json:"assessment_date"`
	Status         AssessmentStatus `db:"status" json:"status"`
	Score          string           `db:"score" json:"score"`
	Comments       string           `db:"comments" json:"comments"`
}

// StudentAssessmentDetail joins student context for assessor views.
type StudentAssessmentDetail struct {
	StudentAssessment
	StudentName string `db:"student_name" json:"student_name"`
	SchoolName  string `db:"school_name" json:"school_name"`
}
