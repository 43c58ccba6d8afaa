package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type applicationRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentApplication, error)
	Exists(ctx context.Context, studentID, subjectID, schoolID string) (bool, error)
	Create(ctx context.Context, application *models.StudentApplication) error
	Approve(ctx context.Context, application *models.StudentApplication, approvedBy string) error
	Reject(ctx context.Context, id, rejectedBy string) error
}

type applicationStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentTeacher, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type subjectCapacityReader interface {
	Find(ctx context.Context, schoolID, subjectID string) (*models.SchoolSubjectCapacity, error)
}

// ApplyRequest describes a subject application payload.
type ApplyRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	SchoolID  string `json:"school_id" validate:"required"`
}

// ApplicationService runs the subject application workflow: a student applies
// for a subject slot at their confirmed school, an admin approves or rejects.
// The subject capacity counter moves only at approval, never at apply.
type ApplicationService struct {
	applications applicationRepository
	students     applicationStudentReader
	subjects     subjectReader
	capacities   subjectCapacityReader
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewApplicationService constructs ApplicationService.
func NewApplicationService(applications applicationRepository, students applicationStudentReader, subjects subjectReader, capacities subjectCapacityReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{
		applications: applications,
		students:     students,
		subjects:     subjects,
		capacities:   capacities,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// Apply creates a pending application for (student, subject, school).
func (s *ApplicationService) Apply(ctx context.Context, studentID string, req ApplyRequest) (*models.StudentApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.SelectedSchoolID == nil || *student.SelectedSchoolID != req.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "application school must match the confirmed selection")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	exists, err := s.applications.Exists(ctx, studentID, req.SubjectID, req.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate application")
	}
	if exists {
		return nil, appErrors.ErrAlreadyApplied
	}

	capacity, err := s.capacities.Find(ctx, req.SchoolID, req.SubjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrSubjectNotOffered
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject capacity")
	}
	if capacity.CurrentStudents >= capacity.MaxStudents {
		return nil, appErrors.ErrSubjectFull
	}

	application := &models.StudentApplication{
		StudentID:       studentID,
		SubjectID:       req.SubjectID,
		SchoolID:        req.SchoolID,
		Status:          models.ApprovalStatusPending,
		ApplicationDate: time.Now().UTC(),
	}
	if err := s.applications.Create(ctx, application); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	s.logger.Info("subject application created",
		zap.String("student_id", studentID),
		zap.String("subject_id", req.SubjectID),
		zap.String("school_id", req.SchoolID))
	return application, nil
}

// Approve decides a pending application in the student's favour. The capacity
// counter and the student subject set move inside the repository transaction.
func (s *ApplicationService) Approve(ctx context.Context, applicationID, adminID string) error {
	application, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if application.Status != models.ApprovalStatusPending {
		return appErrors.Clone(appErrors.ErrConflict, "application already decided")
	}

	if err := s.applications.Approve(ctx, application, adminID); err != nil {
		if err == sql.ErrNoRows {
			// Lost the race with another admin's decision.
			return appErrors.Clone(appErrors.ErrConflict, "application already decided")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve application")
	}

	if s.metrics != nil {
		s.metrics.ApplicationDecided("approved")
	}
	s.logger.Info("application approved",
		zap.String("application_id", applicationID), zap.String("admin_id", adminID))
	return nil
}

// Reject declines a pending application. No counters move.
func (s *ApplicationService) Reject(ctx context.Context, applicationID, adminID string) error {
	if _, err := s.applications.FindByID(ctx, applicationID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if err := s.applications.Reject(ctx, applicationID, adminID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrConflict, "application is not pending")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject application")
	}

	if s.metrics != nil {
		s.metrics.ApplicationDecided("rejected")
	}
	s.logger.Info("application rejected",
		zap.String("application_id", applicationID), zap.String("admin_id", adminID))
	return nil
}

// List returns applications matching the filter with pagination metadata.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, *models.Pagination, error) {
	applications, total, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
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
	return applications, pagination, nil
}
