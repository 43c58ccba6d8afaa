package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/field-placement-api/internal/models"
)

// Capacity rows created lazily at approval time start with this many slots,
// matching the default used when capacities are seeded by import.
const defaultSubjectMaxStudents = 5

// ApplicationRepository handles persistence of student applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// List returns applications filtered by the provided criteria.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	base := `FROM student_applications a
JOIN student_teachers st ON st.id = a.student_id
JOIN subjects sub ON sub.id = a.subject_id
JOIN schools s ON s.id = a.school_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("a.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
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
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.subject_id, a.school_id, a.status,
        a.application_date, a.approved_by, a.approval_date,
        st.full_name AS student_name, sub.name AS subject_name, s.name AS school_name
        %s ORDER BY a.application_date DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return applications, total, nil
}

// FindByID returns an application by its ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.StudentApplication, error) {
	const query = `SELECT id, student_id, subject_id, school_id, status, application_date, approved_by, approval_date
        FROM student_applications WHERE id = $1`
	var application models.StudentApplication
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		return nil, err
	}
	return &application, nil
}

// Exists checks for an application with the given (student, subject, school) triple.
func (r *ApplicationRepository) Exists(ctx context.Context, studentID, subjectID, schoolID string) (bool, error) {
	const query = `SELECT 1 FROM student_applications
        WHERE student_id = $1 AND subject_id = $2 AND school_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check application: %w", err)
	}
	return true, nil
}

// Create persists a new pending application.
func (r *ApplicationRepository) Create(ctx context.Context, application *models.StudentApplication) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	if application.ApplicationDate.IsZero() {
		application.ApplicationDate = time.Now().UTC()
	}
	if application.Status == "" {
		application.Status = models.ApprovalStatusPending
	}
	const query = `INSERT INTO student_applications (id, student_id, subject_id, school_id, status, application_date, approved_by, approval_date)
        VALUES (:id, :student_id, :subject_id, :school_id, :status, :application_date, :approved_by, :approval_date)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// Approve flips the application to approved, adds the subject to the student's
// subject set and bumps the (school, subject) capacity counter, all in one
// transaction. The counter update is an atomic increment-or-create so two
// concurrent approvals of the same pair cannot lose an update.
func (r *ApplicationRepository) Approve(ctx context.Context, application *models.StudentApplication, approvedBy string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve application: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	const statusQuery = `UPDATE student_applications
        SET status = $2, approved_by = $3, approval_date = $4
        WHERE id = $1 AND status = $5`
	res, err := tx.ExecContext(ctx, statusQuery, application.ID, models.ApprovalStatusApproved, approvedBy, now, models.ApprovalStatusPending)
	if err != nil {
		return fmt.Errorf("approve application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve application result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const subjectQuery = `INSERT INTO student_subjects (student_id, subject_id)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, subjectQuery, application.StudentID, application.SubjectID); err != nil {
		return fmt.Errorf("add student subject: %w", err)
	}

	const capacityQuery = `INSERT INTO school_subject_capacities (id, school_id, subject_id, max_students, current_students)
        VALUES ($1, $2, $3, $4, 1)
        ON CONFLICT (school_id, subject_id)
        DO UPDATE SET current_students = school_subject_capacities.current_students + 1`
	if _, err := tx.ExecContext(ctx, capacityQuery, uuid.NewString(), application.SchoolID, application.SubjectID, defaultSubjectMaxStudents); err != nil {
		return fmt.Errorf("increment subject capacity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve application: %w", err)
	}
	return nil
}

// Reject flips the application to rejected. No counters move.
func (r *ApplicationRepository) Reject(ctx context.Context, id, rejectedBy string) error {
	now := time.Now().UTC()
	const query = `UPDATE student_applications
        SET status = $2, approved_by = $3, approval_date = $4
        WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.ApprovalStatusRejected, rejectedBy, now, models.ApprovalStatusPending)
	if err != nil {
		return fmt.Errorf("reject application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reject application result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountApprovedBySchool returns the number of approved applications at a school.
func (r *ApplicationRepository) CountApprovedBySchool(ctx context.Context, schoolID string) (int, error) {
	const query = `SELECT COUNT(*) FROM student_applications WHERE school_id = $1 AND status = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, schoolID, models.ApprovalStatusApproved); err != nil {
		return 0, fmt.Errorf("count approved applications: %w", err)
	}
	return total, nil
}

// ListApprovedByStudent returns a student's approved applications with context.
func (r *ApplicationRepository) ListApprovedByStudent(ctx context.Context, studentID string) ([]models.ApplicationDetail, error) {
	const query = `SELECT a.id, a.student_id, a.subject_id, a.school_id, a.status,
        a.application_date, a.approved_by, a.approval_date,
        st.full_name AS student_name, sub.name AS subject_name, s.name AS school_name
        FROM student_applications a
        JOIN student_teachers st ON st.id = a.student_id
        JOIN subjects sub ON sub.id = a.subject_id
        JOIN schools s ON s.id = a.school_id
        WHERE a.student_id = $1 AND a.status = $2
        ORDER BY a.application_date DESC`
	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, query, studentID, models.ApprovalStatusApproved); err != nil {
		return nil, fmt.Errorf("list approved applications: %w", err)
	}
	return applications, nil
}
