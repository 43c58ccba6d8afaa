package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// YearPinEntry captures the pin flag computed for one region and every school
// under it when an allowed-regions list is submitted.
type YearPinEntry struct {
	RegionID  string
	SchoolIDs []string
	Pinned    bool
}

// PinRepository handles region and school availability pins.
type PinRepository struct {
	db *sqlx.DB
}

// NewPinRepository constructs the repository.
func NewPinRepository(db *sqlx.DB) *PinRepository {
	return &PinRepository{db: db}
}

// RegionPinsForYear returns the pin rows of a year keyed by region ID.
func (r *PinRepository) RegionPinsForYear(ctx context.Context, yearID string) (map[string]models.RegionPin, error) {
	const query = `SELECT id, academic_year_id, region_id, is_pinned
        FROM region_pins WHERE academic_year_id = $1`
	var pins []models.RegionPin
	if err := r.db.SelectContext(ctx, &pins, query, yearID); err != nil {
		return nil, fmt.Errorf("list region pins: %w", err)
	}
	byRegion := make(map[string]models.RegionPin, len(pins))
	for _, pin := range pins {
		byRegion[pin.RegionID] = pin
	}
	return byRegion, nil
}

// SchoolPinsForYear returns the pin rows of a year keyed by school ID.
func (r *PinRepository) SchoolPinsForYear(ctx context.Context, yearID string) (map[string]models.SchoolPin, error) {
	const query = `SELECT id, academic_year_id, school_id, is_pinned, pin_reason, notes, pinned_at, pinned_by
        FROM school_pins WHERE academic_year_id = $1`
	var pins []models.SchoolPin
	if err := r.db.SelectContext(ctx, &pins, query, yearID); err != nil {
		return nil, fmt.Errorf("list school pins: %w", err)
	}
	bySchool := make(map[string]models.SchoolPin, len(pins))
	for _, pin := range pins {
		bySchool[pin.SchoolID] = pin
	}
	return bySchool, nil
}

// FindSchoolPin returns the pin row for a (year, school) pair.
func (r *PinRepository) FindSchoolPin(ctx context.Context, yearID, schoolID string) (*models.SchoolPin, error) {
	const query = `SELECT id, academic_year_id, school_id, is_pinned, pin_reason, notes, pinned_at, pinned_by
        FROM school_pins WHERE academic_year_id = $1 AND school_id = $2`
	var pin models.SchoolPin
	if err := r.db.GetContext(ctx, &pin, query, yearID, schoolID); err != nil {
		return nil, err
	}
	return &pin, nil
}

// FindRegionPin returns the pin row for a (year, region) pair.
func (r *PinRepository) FindRegionPin(ctx context.Context, yearID, regionID string) (*models.RegionPin, error) {
	const query = `SELECT id, academic_year_id, region_id, is_pinned
        FROM region_pins WHERE academic_year_id = $1 AND region_id = $2`
	var pin models.RegionPin
	if err := r.db.GetContext(ctx, &pin, query, yearID, regionID); err != nil {
		return nil, err
	}
	return &pin, nil
}

// UpsertSchoolPin creates or flips a school pin for a year.
func (r *PinRepository) UpsertSchoolPin(ctx context.Context, pin *models.SchoolPin) error {
	if pin.ID == "" {
		pin.ID = uuid.NewString()
	}
	if pin.PinReason == "" {
		pin.PinReason = models.PinReasonManual
	}
	const query = `INSERT INTO school_pins (id, academic_year_id, school_id, is_pinned, pin_reason, notes, pinned_at, pinned_by)
        VALUES (:id, :academic_year_id, :school_id, :is_pinned, :pin_reason, :notes, :pinned_at, :pinned_by)
        ON CONFLICT (academic_year_id, school_id)
        DO UPDATE SET is_pinned = EXCLUDED.is_pinned, pin_reason = EXCLUDED.pin_reason,
            notes = EXCLUDED.notes, pinned_at = EXCLUDED.pinned_at, pinned_by = EXCLUDED.pinned_by`
	if _, err := r.db.NamedExecContext(ctx, query, pin); err != nil {
		return fmt.Errorf("upsert school pin: %w", err)
	}
	return nil
}

// ReplaceYearPins applies a full allowed-regions submission for a year in one
// transaction: every pin of the year is reset to unpinned, then each region
// and school pin is upserted with its computed flag. Existing rows flip in
// place; replaying the same submission creates no duplicates.
func (r *PinRepository) ReplaceYearPins(ctx context.Context, yearID string, entries []YearPinEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace year pins: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE region_pins SET is_pinned = FALSE WHERE academic_year_id = $1`, yearID); err != nil {
		return fmt.Errorf("reset region pins: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE school_pins SET is_pinned = FALSE WHERE academic_year_id = $1`, yearID); err != nil {
		return fmt.Errorf("reset school pins: %w", err)
	}

	const regionUpsert = `INSERT INTO region_pins (id, academic_year_id, region_id, is_pinned)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (academic_year_id, region_id) DO UPDATE SET is_pinned = EXCLUDED.is_pinned`
	const schoolUpsert = `INSERT INTO school_pins (id, academic_year_id, school_id, is_pinned, pin_reason, pinned_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (academic_year_id, school_id) DO UPDATE SET is_pinned = EXCLUDED.is_pinned,
            pin_reason = EXCLUDED.pin_reason, pinned_at = EXCLUDED.pinned_at`

	now := time.Now().UTC()
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, regionUpsert, uuid.NewString(), yearID, entry.RegionID, entry.Pinned); err != nil {
			return fmt.Errorf("upsert region pin: %w", err)
		}
		for _, schoolID := range entry.SchoolIDs {
			if _, err := tx.ExecContext(ctx, schoolUpsert, uuid.NewString(), yearID, schoolID, entry.Pinned, models.PinReasonManual, now); err != nil {
				return fmt.Errorf("upsert school pin: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace year pins: %w", err)
	}
	return nil
}
