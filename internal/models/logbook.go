package models

import "time"

// LogbookEntry is one daily field report. Unique per (student, date).
type LogbookEntry struct {
	ID                 string     `db:"id" json:"id"`
	StudentID          string     `db:"student_id" json:"student_id"`
	Date               time.Time  `db:"date" json:"date"`
	DayOfWeek          string     `db:"day_of_week" json:"day_of_week"`
	MorningActivity    *string    `db:"morning_activity" json:"morning_activity,omitempty"`
	AfternoonActivity  *string    `db:"afternoon_activity" json:"afternoon_activity,omitempty"`
	ChallengesFaced    *string    `db:"challenges_faced" json:"challenges_faced,omitempty"`
	LessonsLearned     *string    `db:"lessons_learned" json:"lessons_learned,omitempty"`
	Latitude           *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude          *float64   `db:"longitude" json:"longitude,omitempty"`
	LocationAddress    *string    `db:"location_address" json:"location_address,omitempty"`
	IsLocationVerified bool       `db:"is_location_verified" json:"is_location_verified"`
	SchoolID           *string    `db:"school_id" json:"school_id,omitempty"`
	IsAtSchool         bool       `db:"is_at_school" json:"is_at_school"`
	MorningCheckIn     *time.Time `db:"morning_check_in" json:"morning_check_in,omitempty"`
	AfternoonCheckOut  *time.Time `db:"afternoon_check_out" json:"afternoon_check_out,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// LogbookFilter captures criteria for listing logbook entries.
type LogbookFilter struct {
	StudentID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
