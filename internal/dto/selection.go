package dto

import "time"

// PendingSelection is the transient, unconfirmed school choice held outside
// the permanent profile until confirmed or cancelled.
type PendingSelection struct {
	SchoolID   string    `json:"school_id"`
	SelectedAt time.Time `json:"selected_at"`
}

// ExpiredSelection identifies a pending selection whose hold lapsed without
// a confirm or cancel. The seat it reserved still needs to be released.
type ExpiredSelection struct {
	StudentID string
	SchoolID  string
}

// SelectionState reports both phases of a student's selection.
type SelectionState struct {
	Pending         *PendingSelection `json:"pending,omitempty"`
	ConfirmedSchool *SchoolSummary    `json:"confirmed_school,omitempty"`
}

// SchoolSummary is the compact school view embedded in selection responses.
type SchoolSummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DistrictName    string `json:"district_name"`
	Capacity        int    `json:"capacity"`
	CurrentStudents int    `json:"current_students"`
}
