package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentTeacher, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentTeacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentTeacher, error)
	Create(ctx context.Context, student *models.StudentTeacher) error
	UpdateProfile(ctx context.Context, id, fullName, phoneNumber string) error
	UpdateApproval(ctx context.Context, id string, status models.ApprovalStatus, approvedBy string) error
}

// UpdateStudentProfileRequest is the student's own profile edit payload.
type UpdateStudentProfileRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
}

// StudentService serves student teacher profiles and admin approval.
type StudentService struct {
	students  studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, validator: validate, logger: logger}
}

// List returns student profiles matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentTeacher, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// ProfileByUser resolves the student profile behind a user account.
func (s *StudentService) ProfileByUser(ctx context.Context, userID string) (*models.StudentTeacher, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// UpdateProfile edits the student's own contact details.
func (s *StudentService) UpdateProfile(ctx context.Context, userID string, req UpdateStudentProfileRequest) (*models.StudentTeacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	student, err := s.ProfileByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.students.UpdateProfile(ctx, student.ID, req.FullName, req.PhoneNumber); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	student.FullName = req.FullName
	student.PhoneNumber = req.PhoneNumber
	return student, nil
}

// Approve marks a student profile approved for placement.
func (s *StudentService) Approve(ctx context.Context, studentID, adminID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.ApprovalStatus == models.ApprovalStatusApproved {
		return appErrors.Clone(appErrors.ErrConflict, "student already approved")
	}

	if err := s.students.UpdateApproval(ctx, studentID, models.ApprovalStatusApproved, adminID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve student")
	}
	s.logger.Info("student profile approved",
		zap.String("student_id", studentID), zap.String("admin_id", adminID))
	return nil
}
