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

// StudentRepository handles persistence of student teacher profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns student profiles filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentTeacher, int, error) {
	base := `FROM student_teachers st`
	var conditions []string
	var args []interface{}

	if filter.ApprovalStatus != "" {
		conditions = append(conditions, fmt.Sprintf("st.approval_status = $%d", len(args)+1))
		args = append(args, filter.ApprovalStatus)
	}
	if filter.SchoolID != "" {
		conditions = append(conditions, fmt.Sprintf("st.selected_school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("st.full_name ILIKE $%d", len(args)+1))
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
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT st.id, st.user_id, st.full_name, st.phone_number, st.email,
        st.selected_school_id, st.approval_status, st.approved_by, st.approval_date
        %s ORDER BY st.full_name LIMIT %d OFFSET %d`, base+clause, size, offset)

	var students []models.StudentTeacher
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student profile by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentTeacher, error) {
	const query = `SELECT id, user_id, full_name, phone_number, email, selected_school_id,
        approval_status, approved_by, approval_date
        FROM student_teachers WHERE id = $1`
	var student models.StudentTeacher
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID returns the profile linked to a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentTeacher, error) {
	const query = `SELECT id, user_id, full_name, phone_number, email, selected_school_id,
        approval_status, approved_by, approval_date
        FROM student_teachers WHERE user_id = $1`
	var student models.StudentTeacher
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListApprovedBySchool returns the approved students confirmed at a school.
func (r *StudentRepository) ListApprovedBySchool(ctx context.Context, schoolID string) ([]models.StudentTeacher, error) {
	const query = `SELECT id, user_id, full_name, phone_number, email, selected_school_id,
        approval_status, approved_by, approval_date
        FROM student_teachers
        WHERE selected_school_id = $1 AND approval_status = $2
        ORDER BY full_name`
	var students []models.StudentTeacher
	if err := r.db.SelectContext(ctx, &students, query, schoolID, models.ApprovalStatusApproved); err != nil {
		return nil, fmt.Errorf("list approved students: %w", err)
	}
	return students, nil
}

// Create persists a new student profile.
func (r *StudentRepository) Create(ctx context.Context, student *models.StudentTeacher) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.ApprovalStatus == "" {
		student.ApprovalStatus = models.ApprovalStatusPending
	}
	const query = `INSERT INTO student_teachers (id, user_id, full_name, phone_number, email, selected_school_id, approval_status, approved_by, approval_date)
        VALUES (:id, :user_id, :full_name, :phone_number, :email, :selected_school_id, :approval_status, :approved_by, :approval_date)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UpdateProfile persists student-editable profile fields.
func (r *StudentRepository) UpdateProfile(ctx context.Context, id, fullName, phoneNumber string) error {
	const query = `UPDATE student_teachers SET full_name = $2, phone_number = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, fullName, phoneNumber); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}
	return nil
}

// SetSelectedSchool persists the confirmed school selection.
func (r *StudentRepository) SetSelectedSchool(ctx context.Context, id, schoolID string) error {
	const query = `UPDATE student_teachers SET selected_school_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, schoolID); err != nil {
		return fmt.Errorf("set selected school: %w", err)
	}
	return nil
}

// UpdateApproval flips the profile moderation state.
func (r *StudentRepository) UpdateApproval(ctx context.Context, id string, status models.ApprovalStatus, approvedBy string) error {
	now := time.Now().UTC()
	const query = `UPDATE student_teachers SET approval_status = $2, approved_by = $3, approval_date = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, approvedBy, now); err != nil {
		return fmt.Errorf("update student approval: %w", err)
	}
	return nil
}
