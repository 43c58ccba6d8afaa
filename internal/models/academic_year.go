package models

// AcademicYear is a named placement cycle, e.g. "2025/2026". At most one year
// is active; activation deactivates the others in the same transaction.
type AcademicYear struct {
	ID       string `db:"id" json:"id"`
	Year     string `db:"year" json:"year"`
	IsActive bool   `db:"is_active" json:"is_active"`
}
