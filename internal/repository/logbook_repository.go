package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// LogbookRepository handles daily field logbook entries.
type LogbookRepository struct {
	db *sqlx.DB
}

// NewLogbookRepository constructs the repository.
func NewLogbookRepository(db *sqlx.DB) *LogbookRepository {
	return &LogbookRepository{db: db}
}

// Upsert writes the entry for (student, date), overwriting an earlier report
// for the same day. The entry keeps its original ID on conflict.
func (r *LogbookRepository) Upsert(ctx context.Context, entry *models.LogbookEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `INSERT INTO logbook_entries (
        id, student_id, date, day_of_week, morning_activity, afternoon_activity,
        challenges_faced, lessons_learned, latitude, longitude, location_address,
        is_location_verified, school_id, is_at_school, morning_check_in,
        afternoon_check_out, created_at, updated_at
    ) VALUES (
        :id, :student_id, :date, :day_of_week, :morning_activity, :afternoon_activity,
        :challenges_faced, :lessons_learned, :latitude, :longitude, :location_address,
        :is_location_verified, :school_id, :is_at_school, :morning_check_in,
        :afternoon_check_out, :created_at, :updated_at
    ) ON CONFLICT (student_id, date) DO UPDATE SET
        day_of_week = EXCLUDED.day_of_week,
        morning_activity = EXCLUDED.morning_activity,
        afternoon_activity = EXCLUDED.afternoon_activity,
        challenges_faced = EXCLUDED.challenges_faced,
        lessons_learned = EXCLUDED.lessons_learned,
        latitude = EXCLUDED.latitude,
        longitude = EXCLUDED.longitude,
        location_address = EXCLUDED.location_address,
        is_location_verified = EXCLUDED.is_location_verified,
        school_id = EXCLUDED.school_id,
        is_at_school = EXCLUDED.is_at_school,
        morning_check_in = EXCLUDED.morning_check_in,
        afternoon_check_out = EXCLUDED.afternoon_check_out,
        updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert logbook entry: %w", err)
	}
	return nil
}

// FindByStudentAndDate returns the entry for one day.
func (r *LogbookRepository) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.LogbookEntry, error) {
	const query = `SELECT * FROM logbook_entries WHERE student_id = $1 AND date = $2`
	var entry models.LogbookEntry
	if err := r.db.GetContext(ctx, &entry, query, studentID, date); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns a student's entries within an optional date window, newest
// first, with the total count for pagination.
func (r *LogbookRepository) List(ctx context.Context, filter models.LogbookFilter) ([]models.LogbookEntry, int, error) {
	conditions := []string{"student_id = $1"}
	args := []interface{}{filter.StudentID}

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM logbook_entries WHERE " + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count logbook entries: %w", err)
	}

	limit := filter.PageSize
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(
		"SELECT * FROM logbook_entries WHERE %s ORDER BY date DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	var entries []models.LogbookEntry
	if err := r.db.SelectContext(ctx, &entries, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list logbook entries: %w", err)
	}
	return entries, total, nil
}
