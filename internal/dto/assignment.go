package dto

import "time"

// AssignmentOutcomeStatus classifies one (assessor, school) pair result.
type AssignmentOutcomeStatus string

const (
	AssignmentCreated AssignmentOutcomeStatus = "created"
	AssignmentSkipped AssignmentOutcomeStatus = "skipped"
	AssignmentFailed  AssignmentOutcomeStatus = "failed"
)

// AssignmentOutcome reports the result of assigning one assessor to one
// school. Skipped means the pair already existed (idempotent no-op).
type AssignmentOutcome struct {
	AssessorID       string                  `json:"assessor_id"`
	SchoolID         string                  `json:"school_id"`
	Status           AssignmentOutcomeStatus `json:"status"`
	AssessmentID     string                  `json:"assessment_id,omitempty"`
	StudentsSnapshot int                     `json:"students_snapshot"`
	Error            string                  `json:"error,omitempty"`
}

// BulkAssignmentReport aggregates the per-pair outcomes of a batch. One pair's
// failure never aborts the rest of the batch.
type BulkAssignmentReport struct {
	Total     int                 `json:"total"`
	Created   int                 `json:"created"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	Outcomes  []AssignmentOutcome `json:"outcomes"`
	StartedAt time.Time           `json:"started_at"`
}
