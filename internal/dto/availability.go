package dto

import "github.com/noah-isme/field-placement-api/internal/models"

// RegionAvailability annotates a region with its pin state for a year.
type RegionAvailability struct {
	models.Region
	IsPinned bool `json:"is_pinned"`
}

// SchoolAvailability is the two-level availability verdict for one school.
// Pinned and Full are reported separately: a school is selectable only when
// it is neither.
type SchoolAvailability struct {
	models.SchoolDetail
	IsPinned         bool             `json:"is_pinned"`
	PinReason        models.PinReason `json:"pin_reason,omitempty"`
	PinNotes         string           `json:"pin_notes,omitempty"`
	IsFull           bool             `json:"is_full"`
	IsSelectable     bool             `json:"is_selectable"`
	OccupancyPercent int              `json:"occupancy_percent"`
}

// SchoolAvailabilitySummary aggregates the counts shown alongside a school list.
type SchoolAvailabilitySummary struct {
	TotalSchools     int `json:"total_schools"`
	PinnedSchools    int `json:"pinned_schools"`
	AvailableSchools int `json:"available_schools"`
	FullSchools      int `json:"full_schools"`
}
