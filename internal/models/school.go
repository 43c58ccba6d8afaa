package models

// SchoolLevel distinguishes primary from secondary schools.
type SchoolLevel string

const (
	SchoolLevelPrimary   SchoolLevel = "Primary"
	SchoolLevelSecondary SchoolLevel = "Secondary"
)

// School is a placement site with a bounded number of student slots.
// CurrentStudents is only ever mutated through conditional relative updates.
type School struct {
	ID              string      `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	DistrictID      string      `db:"district_id" json:"district_id"`
	Level           SchoolLevel `db:"level" json:"level"`
	Capacity        int         `db:"capacity" json:"capacity"`
	CurrentStudents int         `db:"current_students" json:"current_students"`
	Latitude        *float64    `db:"latitude" json:"latitude,omitempty"`
	Longitude       *float64    `db:"longitude" json:"longitude,omitempty"`
	Address         *string     `db:"address" json:"address,omitempty"`
}

// SchoolDetail includes district and region context for list views.
type SchoolDetail struct {
	School
	DistrictName string `db:"district_name" json:"district_name"`
	RegionName   string `db:"region_name" json:"region_name"`
}

// SchoolFilter captures criteria for listing schools.
type SchoolFilter struct {
	DistrictID string
	Level      SchoolLevel
	Search     string
	Page       int
	PageSize   int
}
