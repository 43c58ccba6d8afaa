package models

// SubjectLevel mirrors the school levels for subject reference data.
type SubjectLevel string

const (
	SubjectLevelPrimary   SubjectLevel = "primary"
	SubjectLevelSecondary SubjectLevel = "secondary"
)

// Subject is a teaching subject reference record.
type Subject struct {
	ID    string       `db:"id" json:"id"`
	Name  string       `db:"name" json:"name"`
	Code  string       `db:"code" json:"code"`
	Level SubjectLevel `db:"level" json:"level"`
}

// SchoolSubjectCapacity tracks per (school, subject) placement slots.
// The pair is unique; CurrentStudents moves only via conditional relative
// updates or the approve-time atomic increment-or-create.
type SchoolSubjectCapacity struct {
	ID              string `db:"id" json:"id"`
	SchoolID        string `db:"school_id" json:"school_id"`
	SubjectID       string `db:"subject_id" json:"subject_id"`
	MaxStudents     int    `db:"max_students" json:"max_students"`
	CurrentStudents int    `db:"current_students" json:"current_students"`
}

// SubjectCapacityDetail joins in the subject fields for the selection UI.
type SubjectCapacityDetail struct {
	SchoolSubjectCapacity
	SubjectName string       `db:"subject_name" json:"subject_name"`
	SubjectCode string       `db:"subject_code" json:"subject_code"`
	Level       SubjectLevel `db:"subject_level" json:"subject_level"`
}
