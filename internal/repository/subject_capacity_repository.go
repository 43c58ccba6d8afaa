package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// SubjectCapacityRepository handles the per (school, subject) slot counters.
type SubjectCapacityRepository struct {
	db *sqlx.DB
}

// NewSubjectCapacityRepository constructs the repository.
func NewSubjectCapacityRepository(db *sqlx.DB) *SubjectCapacityRepository {
	return &SubjectCapacityRepository{db: db}
}

// ListBySchool returns the subject capacity rows offered at a school.
func (r *SubjectCapacityRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.SubjectCapacityDetail, error) {
	const query = `SELECT c.id, c.school_id, c.subject_id, c.max_students, c.current_students,
        sub.name AS subject_name, sub.code AS subject_code, sub.level AS subject_level
        FROM school_subject_capacities c
        JOIN subjects sub ON sub.id = c.subject_id
        WHERE c.school_id = $1
        ORDER BY sub.name`
	var capacities []models.SubjectCapacityDetail
	if err := r.db.SelectContext(ctx, &capacities, query, schoolID); err != nil {
		return nil, fmt.Errorf("list subject capacities: %w", err)
	}
	return capacities, nil
}

// Find returns the capacity row for a (school, subject) pair.
func (r *SubjectCapacityRepository) Find(ctx context.Context, schoolID, subjectID string) (*models.SchoolSubjectCapacity, error) {
	const query = `SELECT id, school_id, subject_id, max_students, current_students
        FROM school_subject_capacities
        WHERE school_id = $1 AND subject_id = $2`
	var capacity models.SchoolSubjectCapacity
	if err := r.db.GetContext(ctx, &capacity, query, schoolID, subjectID); err != nil {
		return nil, err
	}
	return &capacity, nil
}

// Create persists a new capacity row.
func (r *SubjectCapacityRepository) Create(ctx context.Context, capacity *models.SchoolSubjectCapacity) error {
	if capacity.ID == "" {
		capacity.ID = uuid.NewString()
	}
	const query = `INSERT INTO school_subject_capacities (id, school_id, subject_id, max_students, current_students)
        VALUES (:id, :school_id, :subject_id, :max_students, :current_students)`
	if _, err := r.db.NamedExecContext(ctx, query, capacity); err != nil {
		return fmt.Errorf("create subject capacity: %w", err)
	}
	return nil
}
