package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// AssessmentRepository handles school and student assessments.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// FindByAssessorAndSchool returns the assignment row for a pair, or nil when
// the pair has never been assigned.
func (r *AssessmentRepository) FindByAssessorAndSchool(ctx context.Context, assessorID, schoolID string) (*models.SchoolAssessment, error) {
	const query = `SELECT id, assessor_id, school_id, assigned_date, assessment_date, is_completed
        FROM school_assessments WHERE assessor_id = $1 AND school_id = $2`
	var assessment models.SchoolAssessment
	if err := r.db.GetContext(ctx, &assessment, query, assessorID, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find school assessment: %w", err)
	}
	return &assessment, nil
}

// CreateWithRoster inserts the assignment and snapshots the given students
// into student assessment rows in a single transaction. The roster is a
// point-in-time copy; it is not kept in sync with later approvals.
func (r *AssessmentRepository) CreateWithRoster(ctx context.Context, assessment *models.SchoolAssessment, studentIDs []string) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.AssignedDate.IsZero() {
		assessment.AssignedDate = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create assessment: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const assessmentQuery = `INSERT INTO school_assessments (id, assessor_id, school_id, assigned_date, assessment_date, is_completed)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, assessmentQuery,
		assessment.ID, assessment.AssessorID, assessment.SchoolID,
		assessment.AssignedDate, assessment.AssessmentDate, assessment.IsCompleted); err != nil {
		return fmt.Errorf("create school assessment: %w", err)
	}

	const rosterQuery = `INSERT INTO student_assessments (id, assessor_id, student_id, school_id, assessment_date, status, score, comments)
        VALUES ($1, $2, $3, $4, $5, $6, '', '')`
	for _, studentID := range studentIDs {
		if _, err := tx.ExecContext(ctx, rosterQuery,
			uuid.NewString(), assessment.AssessorID, studentID, assessment.SchoolID,
			assessment.AssessmentDate, models.AssessmentStatusPending); err != nil {
			return fmt.Errorf("snapshot student assessment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create assessment: %w", err)
	}
	return nil
}

// ListByAssessor returns an assessor's school assignments.
func (r *AssessmentRepository) ListByAssessor(ctx context.Context, assessorID string) ([]models.SchoolAssessment, error) {
	const query = `SELECT id, assessor_id, school_id, assigned_date, assessment_date, is_completed
        FROM school_assessments WHERE assessor_id = $1 ORDER BY assigned_date DESC`
	var assessments []models.SchoolAssessment
	if err := r.db.SelectContext(ctx, &assessments, query, assessorID); err != nil {
		return nil, fmt.Errorf("list school assessments: %w", err)
	}
	return assessments, nil
}

// ListBySchool returns every assessor assignment covering a school.
func (r *AssessmentRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.SchoolAssessment, error) {
	const query = `SELECT id, assessor_id, school_id, assigned_date, assessment_date, is_completed
        FROM school_assessments WHERE school_id = $1 ORDER BY assigned_date DESC`
	var assessments []models.SchoolAssessment
	if err := r.db.SelectContext(ctx, &assessments, query, schoolID); err != nil {
		return nil, fmt.Errorf("list school assessments: %w", err)
	}
	return assessments, nil
}

// Complete marks a school assessment as done.
func (r *AssessmentRepository) Complete(ctx context.Context, id string) error {
	const query = `UPDATE school_assessments SET is_completed = TRUE WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("complete school assessment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete school assessment result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListStudentAssessments returns the snapshot roster rows for an assessor,
// optionally narrowed to one school.
func (r *AssessmentRepository) ListStudentAssessments(ctx context.Context, assessorID, schoolID string) ([]models.StudentAssessmentDetail, error) {
	query := `SELECT sa.id, sa.assessor_id, sa.student_id, sa.school_id, sa.assessment_date,
        sa.status, sa.score, sa.comments,
        st.full_name AS student_name, s.name AS school_name
        FROM student_assessments sa
        JOIN student_teachers st ON st.id = sa.student_id
        JOIN schools s ON s.id = sa.school_id
        WHERE sa.assessor_id = $1`
	args := []interface{}{assessorID}
	if schoolID != "" {
		query += ` AND sa.school_id = $2`
		args = append(args, schoolID)
	}
	query += ` ORDER BY st.full_name`

	var assessments []models.StudentAssessmentDetail
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, fmt.Errorf("list student assessments: %w", err)
	}
	return assessments, nil
}

// FindStudentAssessment returns one roster row by ID.
func (r *AssessmentRepository) FindStudentAssessment(ctx context.Context, id string) (*models.StudentAssessment, error) {
	const query = `SELECT id, assessor_id, student_id, school_id, assessment_date, status, score, comments
        FROM student_assessments WHERE id = $1`
	var assessment models.StudentAssessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// UpdateStudentAssessment records assessment progress for one student.
func (r *AssessmentRepository) UpdateStudentAssessment(ctx context.Context, id string, status models.AssessmentStatus, score, comments string) error {
	const query = `UPDATE student_assessments SET status = $2, score = $3, comments = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, score, comments); err != nil {
		return fmt.Errorf("update student assessment: %w", err)
	}
	return nil
}
