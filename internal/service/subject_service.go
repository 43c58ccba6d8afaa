package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/field-placement-api/internal/models"
	appErrors "github.com/noah-isme/field-placement-api/pkg/errors"
)

type subjectStore interface {
	List(ctx context.Context, level models.SubjectLevel) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type subjectCapacityStore interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.SubjectCapacityDetail, error)
	Create(ctx context.Context, capacity *models.SchoolSubjectCapacity) error
}

type subjectSchoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

// CreateSubjectRequest describes the admin subject creation payload.
type CreateSubjectRequest struct {
	Name  string              `json:"name" validate:"required"`
	Code  string              `json:"code" validate:"required"`
	Level models.SubjectLevel `json:"level" validate:"required,oneof=primary secondary"`
}

// CreateSubjectCapacityRequest opens a subject at a school with a slot limit.
type CreateSubjectCapacityRequest struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	MaxStudents int    `json:"max_students" validate:"required,min=1"`
}

// SubjectService serves teaching subject reference data and per-school
// subject capacities.
type SubjectService struct {
	subjects   subjectStore
	capacities subjectCapacityStore
	schools    subjectSchoolReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSubjectService constructs SubjectService.
func NewSubjectService(subjects subjectStore, capacities subjectCapacityStore, schools subjectSchoolReader, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{
		subjects:   subjects,
		capacities: capacities,
		schools:    schools,
		validator:  validate,
		logger:     logger,
	}
}

// List returns subjects, optionally filtered by level.
func (s *SubjectService) List(ctx context.Context, level models.SubjectLevel) ([]models.Subject, error) {
	subjects, err := s.subjects.List(ctx, level)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Create registers a subject. Codes are unique.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	exists, err := s.subjects.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}

	subject := &models.Subject{Name: req.Name, Code: req.Code, Level: req.Level}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// ListSchoolSubjects returns the subject capacity rows offered at a school.
func (s *SubjectService) ListSchoolSubjects(ctx context.Context, schoolID string) ([]models.SubjectCapacityDetail, error) {
	if _, err := s.schools.FindByID(ctx, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	capacities, err := s.capacities.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list school subjects")
	}
	return capacities, nil
}

// OpenSchoolSubject offers a subject at a school with a slot limit.
func (s *SubjectService) OpenSchoolSubject(ctx context.Context, schoolID string, req CreateSubjectCapacityRequest) (*models.SchoolSubjectCapacity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject capacity payload")
	}
	if _, err := s.schools.FindByID(ctx, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	capacity := &models.SchoolSubjectCapacity{
		SchoolID:    schoolID,
		SubjectID:   req.SubjectID,
		MaxStudents: req.MaxStudents,
	}
	if err := s.capacities.Create(ctx, capacity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open school subject")
	}
	return capacity, nil
}
