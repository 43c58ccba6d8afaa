package models

import "time"

// PinReason records why a school was pinned unavailable.
type PinReason string

const (
	PinReasonManual      PinReason = "manual"
	PinReasonProblematic PinReason = "problematic"
	PinReasonCapacity    PinReason = "capacity"
	PinReasonOther       PinReason = "other"
)

// RegionPin marks a region unavailable for an academic year. Rows are upserted
// per (year, region) and flipped in place, never deleted.
type RegionPin struct {
	ID             string `db:"id" json:"id"`
	AcademicYearID string `db:"academic_year_id" json:"academic_year_id"`
	RegionID       string `db:"region_id" json:"region_id"`
	IsPinned       bool   `db:"is_pinned" json:"is_pinned"`
}

// SchoolPin marks a school unavailable for an academic year, independent of
// capacity. Unique per (year, school).
type SchoolPin struct {
	ID             string     `db:"id" json:"id"`
	AcademicYearID string     `db:"academic_year_id" json:"academic_year_id"`
	SchoolID       string     `db:"school_id" json:"school_id"`
	IsPinned       bool       `db:"is_pinned" json:"is_pinned"`
	PinReason      PinReason  `db:"pin_reason" json:"pin_reason"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	PinnedAt       *time.Time `db:"pinned_at" json:"pinned_at,omitempty"`
	PinnedBy       *string    `db:"pinned_by" json:"pinned_by,omitempty"`
}
