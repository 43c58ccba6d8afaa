package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// SchoolRepository handles persistence of schools and their seat counters.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs the repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns schools filtered by the provided criteria.
func (r *SchoolRepository) List(ctx context.Context, filter models.SchoolFilter) ([]models.SchoolDetail, int, error) {
	base := `FROM schools s
JOIN districts d ON d.id = s.district_id
JOIN regions rg ON rg.id = d.region_id`
	var conditions []string
	var args []interface{}

	if filter.DistrictID != "" {
		conditions = append(conditions, fmt.Sprintf("s.district_id = $%d", len(args)+1))
		args = append(args, filter.DistrictID)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("s.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("s.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.name, s.district_id, s.level, s.capacity, s.current_students,
        s.latitude, s.longitude, s.address, d.name AS district_name, rg.name AS region_name
        %s ORDER BY s.name LIMIT %d OFFSET %d`, base+clause, size, offset)

	var schools []models.SchoolDetail
	if err := r.db.SelectContext(ctx, &schools, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schools: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schools: %w", err)
	}
	return schools, total, nil
}

// FindByID returns a school by its ID.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, district_id, level, capacity, current_students, latitude, longitude, address
        FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// FindDetailByID returns a school with district and region context.
func (r *SchoolRepository) FindDetailByID(ctx context.Context, id string) (*models.SchoolDetail, error) {
	const query = `SELECT s.id, s.name, s.district_id, s.level, s.capacity, s.current_students,
        s.latitude, s.longitude, s.address, d.name AS district_name, rg.name AS region_name
        FROM schools s
        JOIN districts d ON d.id = s.district_id
        JOIN regions rg ON rg.id = d.region_id
        WHERE s.id = $1`
	var school models.SchoolDetail
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// ListIDsByRegion returns the IDs of every school under a region.
func (r *SchoolRepository) ListIDsByRegion(ctx context.Context, regionID string) ([]string, error) {
	const query = `SELECT s.id FROM schools s
        JOIN districts d ON d.id = s.district_id
        WHERE d.region_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, regionID); err != nil {
		return nil, fmt.Errorf("list region school ids: %w", err)
	}
	return ids, nil
}

// TryReserveSlot increments the school's seat counter only while capacity
// remains. The check and the increment are a single conditional update, so two
// concurrent reservations can never both take the last seat. Returns false
// when no seat was available.
func (r *SchoolRepository) TryReserveSlot(ctx context.Context, schoolID string) (bool, error) {
	const query = `UPDATE schools
        SET current_students = current_students + 1
        WHERE id = $1 AND current_students < capacity`
	res, err := r.db.ExecContext(ctx, query, schoolID)
	if err != nil {
		return false, fmt.Errorf("reserve school slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve school slot result: %w", err)
	}
	return affected == 1, nil
}

// ReleaseSlot decrements the school's seat counter, floored at zero so a
// duplicate release can never drive it negative.
func (r *SchoolRepository) ReleaseSlot(ctx context.Context, schoolID string) error {
	const query = `UPDATE schools
        SET current_students = current_students - 1
        WHERE id = $1 AND current_students > 0`
	if _, err := r.db.ExecContext(ctx, query, schoolID); err != nil {
		return fmt.Errorf("release school slot: %w", err)
	}
	return nil
}

// Create persists a new school record.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	const query = `INSERT INTO schools (id, name, district_id, level, capacity, current_students, latitude, longitude, address)
        VALUES (:id, :name, :district_id, :level, :capacity, :current_students, :latitude, :longitude, :address)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// Update persists mutable school fields. Seat counters are excluded on
// purpose; they move only through TryReserveSlot and ReleaseSlot.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	const query = `UPDATE schools SET name = :name, level = :level, capacity = :capacity,
        latitude = :latitude, longitude = :longitude, address = :address
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	return nil
}
